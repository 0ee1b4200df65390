// Package docs registers the generated OpenAPI description with the
// swag runtime so /swagger consumers can fetch it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/game-event": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Dispatch a polling game event (start_question, select_option, end_round)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/game-state/{roomId}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Read-only room snapshot",
                "parameters": [
                    {"type": "string", "name": "roomId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Exchange an OAuth authorization code for the provider token bundle",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Active rooms, players and daily counters",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/admin/leaderboard/{date}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Archived per-room scores for a day",
                "parameters": [
                    {"type": "string", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Discord Trivia Backend API",
	Description:      "Real-time multiplayer trivia rooms keyed by voice channel",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
