// Package docs holds the swagger document served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/auth/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Issue an owner token",
                "description": "Only served outside production",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.TokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "List active tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "tag", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "enum": ["created_at", "updated_at", "deadline"], "name": "sort", "in": "query"},
                    {"type": "string", "enum": ["asc", "desc"], "name": "order", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/listing.Page"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ports.CreatedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/completed": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "List completed tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/listing.Page"}}
                }
            }
        },
        "/tasks/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Update a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Delete a task",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/toggle": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Toggle completion",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Task statistics",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "enum": ["today", "week", "month", "quarter", "year", "custom"], "name": "range", "in": "query"},
                    {"type": "string", "format": "date", "name": "start", "in": "query"},
                    {"type": "string", "format": "date", "name": "end", "in": "query"},
                    {"type": "string", "enum": ["deadline", "created"], "name": "scope", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/stats.Stats"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/calendar": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Deadlines by day",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "month", "in": "query", "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/stats.CalendarDay"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tags": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Configured tags",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.TagsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "tag": {"type": "string"},
                "complete": {"type": "boolean"},
                "alert": {"type": "boolean"},
                "deadline": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "listing.Page": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/entities.Task"}},
                "page": {"type": "integer"},
                "page_count": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "stats.CalendarDay": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/entities.Task"}}
            }
        },
        "stats.Stats": {
            "type": "object",
            "properties": {
                "range_set": {"type": "boolean"},
                "scope": {"type": "string"},
                "total": {"type": "integer"},
                "completed": {"type": "integer"},
                "alerts": {"type": "integer"},
                "completion_rate": {"type": "number"},
                "categories": {"type": "array", "items": {"type": "object"}},
                "soon_due": {"type": "array", "items": {"type": "object"}},
                "overdue": {"type": "array", "items": {"type": "object"}},
                "trend": {"type": "array", "items": {"type": "object"}},
                "deadline_distribution": {"type": "array", "items": {"type": "object"}},
                "completed_tasks": {"type": "array", "items": {"$ref": "#/definitions/entities.Task"}}
            }
        },
        "ports.TokenRequest": {
            "type": "object",
            "required": ["owner_id"],
            "properties": {"owner_id": {"type": "string"}}
        },
        "ports.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "owner_id": {"type": "string"}
            }
        },
        "ports.CreateTaskRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "content": {"type": "string"},
                "tag": {"type": "string"},
                "deadline": {"type": "string"},
                "alert": {"type": "boolean"}
            }
        },
        "ports.UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "tag": {"type": "string"},
                "deadline": {"type": "string"},
                "clear_deadline": {"type": "boolean"},
                "alert": {"type": "boolean"},
                "complete": {"type": "boolean"}
            }
        },
        "ports.CreatedResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "task": {"$ref": "#/definitions/entities.Task"}
            }
        },
        "ports.TagsResponse": {
            "type": "object",
            "properties": {
                "tags": {"type": "array", "items": {"type": "string"}},
                "fallback": {"type": "string"}
            }
        },
        "ports.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "ports.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and the owner token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "To-Do Board API",
	Description:      "Task board: listing, statistics and calendar views over a per-owner task store",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
