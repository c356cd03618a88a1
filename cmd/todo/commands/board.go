package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/a920604a/to-do-list/internal/application/services"
	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/period"
	"github.com/a920604a/to-do-list/internal/domain/stats"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/infrastructure/server"
	"github.com/a920604a/to-do-list/internal/ports"
)

const displayLayout = "2006-01-02 15:04"

// session is an opened store and service for one CLI invocation
type session struct {
	logger  *logger.Logger
	backend *server.Backend
	tasks   *services.TaskService
}

func openSession(opts *rootOptions) (*session, error) {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// stdout belongs to the command output
	cfg.Logger.Output = "stderr"

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	backend, err := server.OpenBackend(cfg, loc, prometheus.NewRegistry(), appLogger)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewTaskService(backend.Store, cfg.Board, loc, appLogger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &session{logger: appLogger, backend: backend, tasks: svc}, nil
}

func (s *session) Close() error {
	err := s.backend.Close()
	_ = s.logger.Close()
	return err
}

// board opens the owner's board and loads its snapshot
func (s *session) board(ctx context.Context, ownerID string) (*services.Board, error) {
	b := services.NewBoard(s.tasks, ownerID)
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func withSession(opts *rootOptions, fn func(s *session) error) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func requireOwnerFlag(ownerID string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", errors.New("--owner is required")
	}
	return ownerID, nil
}

// NewTokenCommand creates the token command
func NewTokenCommand(opts *rootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwnerFlag(ownerID)
			if err != nil {
				return err
			}

			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			token, err := services.NewAuthService(cfg.JWT, logger.NewNop()).IssueToken(owner)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, token, func(p printer) {
				p.line("%s", token.AccessToken)
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner id (required)")
	return cmd
}

// NewAddCommand creates the add command
func NewAddCommand(opts *rootOptions) *cobra.Command {
	var (
		ownerID string
		req     ports.CreateTaskRequest
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to an owner's board",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwnerFlag(ownerID)
			if err != nil {
				return err
			}

			return withSession(opts, func(s *session) error {
				b, err := s.board(cmd.Context(), owner)
				if err != nil {
					return err
				}
				task, err := b.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, task, func(p printer) {
					p.line("Created %s", task.ID)
					p.task(*task)
				})
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner id (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&req.Content, "content", "", "Task details")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "Task tag; unknown tags use the fallback")
	cmd.Flags().StringVar(&req.Deadline, "deadline", "", "Deadline, e.g. 2024-05-16 or 2024-05-16T18:00")
	cmd.Flags().BoolVar(&req.Alert, "alert", false, "Flag the task for an alert")
	return cmd
}

// NewTasksCommand creates the tasks command
func NewTasksCommand(opts *rootOptions) *cobra.Command {
	var (
		ownerID   string
		tag       string
		search    string
		sortKey   string
		ascending bool
		page      int
		pageSize  int
		completed bool
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print one page of an owner's board",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwnerFlag(ownerID)
			if err != nil {
				return err
			}

			return withSession(opts, func(s *session) error {
				var result listing.Page
				if completed {
					result, err = s.tasks.Completed(cmd.Context(), owner, page, pageSize)
					if err != nil {
						return err
					}
				} else {
					b, err := s.board(cmd.Context(), owner)
					if err != nil {
						return err
					}
					b.SetTag(tag)
					b.SetSearch(search)
					b.SetSort(listing.SortKey(sortKey), ascending)
					b.SetPageSize(pageSize)
					b.GoTo(page)
					result = b.Page()
				}

				return render(cmd.OutOrStdout(), opts.output, result, func(p printer) {
					p.line("Page %d/%d (%d tasks)", result.PageNumber, result.PageCount, result.Total)
					for _, t := range result.Items {
						p.task(t)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner id (required)")
	cmd.Flags().StringVar(&tag, "tag", listing.AllTags, "Tag filter")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Search title and content")
	cmd.Flags().StringVar(&sortKey, "sort", string(listing.SortCreatedAt), "Sort by created_at, updated_at or deadline")
	cmd.Flags().BoolVar(&ascending, "asc", false, "Sort ascending")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page size (0 uses the configured size)")
	cmd.Flags().BoolVar(&completed, "completed", false, "List completed tasks instead")
	return cmd
}

// NewStatsCommand creates the stats command
func NewStatsCommand(opts *rootOptions) *cobra.Command {
	var (
		ownerID string
		label   string
		start   string
		end     string
		scope   string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for an owner's board",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwnerFlag(ownerID)
			if err != nil {
				return err
			}

			return withSession(opts, func(s *session) error {
				b, err := s.board(cmd.Context(), owner)
				if err != nil {
					return err
				}
				b.SetRange(period.ParseLabel(label), start, end)
				b.SetScope(scope)
				result := b.Stats()

				return render(cmd.OutOrStdout(), opts.output, result, func(p printer) {
					printStats(p, result)
				})
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner id (required)")
	cmd.Flags().StringVar(&label, "range", string(period.Week), "today, week, month, quarter, year or custom")
	cmd.Flags().StringVar(&start, "start", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&scope, "scope", "", "deadline or created (default from config)")
	return cmd
}

func printStats(p printer, s stats.Stats) {
	if s.RangeSet {
		p.line("Range: %s to %s (%s)", s.Range.Start.Format(period.DateLayout), s.Range.End.Format(period.DateLayout), s.Scope)
	} else {
		p.line("Range: all tasks")
	}
	p.line("Total: %d  Completed: %d  Rate: %.0f%%  Alerts: %d", s.Total, s.Completed, s.CompletionRate*100, s.Alerts)

	p.line("Categories:")
	for _, c := range s.Categories {
		p.line("  %-10s %d", c.Name, c.Value)
	}

	if len(s.SoonDue) > 0 {
		p.line("Due soon:")
		for _, d := range s.SoonDue {
			p.line("  %s  %s (in %d day(s))", d.Task.Deadline.Format(displayLayout), d.Task.Title, d.Days)
		}
	}
	if len(s.Overdue) > 0 {
		p.line("Overdue:")
		for _, d := range s.Overdue {
			p.line("  %s  %s", d.Task.Deadline.Format(displayLayout), d.Task.Title)
		}
	}

	p.line("Created per day:")
	for _, point := range s.Trend {
		p.line("  %-6s %s %d", point.Date, strings.Repeat("#", point.Count), point.Count)
	}
}

func formatDeadline(t entities.Task) string {
	if !t.HasDeadline() {
		return "-"
	}
	return t.Deadline.Format(displayLayout)
}
