package main

import (
	"os"

	"github.com/a920604a/to-do-list/cmd/todo/commands"
)

// @title To-Do Board API
// @version 1.0
// @description Task board: listing, statistics and calendar views over a per-owner task store

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the owner token.

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := commands.NewRootCommand(commands.BuildInfo{Version: version, Commit: commit})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
