// Package docs registers the OpenAPI document served under /swagger.
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
    "paths": {
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/sessions": {
            "get": {
                "produces": ["application/json"], "tags": ["sessions"], "summary": "List sessions",
                "parameters": [{"type": "integer", "description": "max sessions", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["sessions"], "summary": "Create a session",
                "parameters": [
                    {"type": "file", "description": "narration script", "name": "script", "in": "formData", "required": true},
                    {"type": "file", "description": "marker sheet", "name": "sheet", "in": "formData", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "422": {"description": "no valid markers"}}
            }
        },
        "/api/v1/sessions/{id}": {
            "get": {
                "produces": ["application/json"], "tags": ["sessions"], "summary": "Get a session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/prompts": {
            "get": {
                "produces": ["text/plain"], "tags": ["sessions"], "summary": "Image prompts",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/media": {
            "post": {
                "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["media"], "summary": "Attach numbered media",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "files", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/scenes/{raw_id}/slots/{slot}": {
            "put": {
                "consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["media"], "summary": "Upload one slot",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "raw_id", "in": "path", "required": true},
                    {"type": "string", "name": "slot", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/scenes/{raw_id}/select": {
            "post": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["media"], "summary": "Select a slot",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "raw_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "slot is empty"}}
            }
        },
        "/api/v1/sessions/{id}/generate": {
            "post": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["generation"], "summary": "Generate project files",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "207": {"description": "partially written"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/outputs/{name}": {
            "get": {
                "produces": ["application/zip"], "tags": ["generation"], "summary": "Download a project file",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "vrewgen API",
	Description:      "Aligns narration scripts with scene markers and generates Vrew project files.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
