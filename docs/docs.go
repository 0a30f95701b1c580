// Package docs registers the OpenAPI description served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/token": {"post": {"tags": ["auth"], "summary": "Issue access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/auth/verification-code": {"post": {"tags": ["auth"], "summary": "Mail an email verification code", "security": [{"BearerAuth": []}], "responses": {"202": {"description": "Accepted"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}}},
        "/auth/verify-email": {"post": {"tags": ["auth"], "summary": "Confirm an email verification code", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/users/me": {
            "get": {"tags": ["users"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["users"], "summary": "Update username or bio", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/users/me/avatar": {"post": {"tags": ["users"], "summary": "Upload avatar", "security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/users/{id}": {"get": {"tags": ["users"], "summary": "User profile", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{id}/follow": {
            "post": {"tags": ["users"], "summary": "Follow a user", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["users"], "summary": "Unfollow a user", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/posts": {
            "get": {"tags": ["posts"], "summary": "List published posts", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["posts"], "summary": "Create a post", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/posts/recommended": {"get": {"tags": ["posts"], "summary": "Recommended posts", "responses": {"200": {"description": "OK"}}}},
        "/posts/{id}": {
            "get": {"tags": ["posts"], "summary": "Post detail", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["posts"], "summary": "Update own post", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/posts/{id}/like": {"post": {"tags": ["posts"], "summary": "Like a post", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/comments": {"post": {"tags": ["comments"], "summary": "Comment on a post or reply to a comment", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/comments/post/{postId}": {"get": {"tags": ["comments"], "summary": "Comment threads of a post", "responses": {"200": {"description": "OK"}}}},
        "/histories/me": {"get": {"tags": ["histories"], "summary": "Browsing history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/search/blogs": {"get": {"tags": ["search"], "summary": "Search published posts", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/messages": {"post": {"tags": ["messages"], "summary": "Send a direct message", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}}}},
        "/ai/suggestions": {"post": {"tags": ["ai"], "summary": "Writing suggestions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}},
        "/ws/ticket": {"post": {"tags": ["realtime"], "summary": "Issue a WebSocket ticket", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Inkwell API",
	Description:      "Blog backend: posts, threaded comments, engagement, history, search, recommendations and direct messages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
