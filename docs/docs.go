// Package docs holds the OpenAPI description served at /swagger.
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
        "/chat/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Routes a command, the done keyword or free text to the declaration dialogue",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Relay a text message",
                "parameters": [
                    {
                        "description": "Inbound message",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ChatMessageRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Replies in send order", "schema": {"$ref": "#/definitions/handler.RepliesResponse"}},
                    "400": {"description": "Malformed body", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "503": {"description": "Session could not be persisted", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/chat/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Runs the batch pipeline on a zip archive or a single xlsx, pdf, jpg or png file",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Relay an uploaded document",
                "parameters": [
                    {"type": "integer", "description": "Chat user id", "name": "user_id", "in": "formData", "required": true},
                    {"type": "file", "description": "Archive or document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Replies in send order", "schema": {"$ref": "#/definitions/handler.RepliesResponse"}},
                    "400": {"description": "Missing file or user id", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List catalog entries",
                "responses": {
                    "200": {"description": "Catalog entries", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.CatalogEntry"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.CatalogEntry": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "customs_code": {"type": "string"},
                "certification_required": {"type": "boolean"},
                "origin_certificate_available": {"type": "boolean"}
            }
        },
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.ChatMessageRequest": {
            "type": "object",
            "required": ["text", "user_id"],
            "properties": {
                "text": {"type": "string", "example": "томаты"},
                "user_id": {"type": "integer", "example": 123456789}
            }
        },
        "handler.DocumentDTO": {
            "type": "object",
            "properties": {
                "content": {"type": "string", "format": "base64"},
                "content_type": {"type": "string"},
                "name": {"type": "string", "example": "declaration_123456789_2025-05-01.xlsx"},
                "rows": {"type": "integer", "example": 3},
                "url": {"type": "string"}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.APIError"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handler.RepliesResponse": {
            "type": "object",
            "properties": {
                "replies": {"type": "array", "items": {"$ref": "#/definitions/handler.ReplyDTO"}}
            }
        },
        "handler.ReplyDTO": {
            "type": "object",
            "properties": {
                "document": {"$ref": "#/definitions/handler.DocumentDTO"},
                "text": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Gateway token, \"Bearer <jwt>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "declbot API",
	Description:      "Chat gateway API for building customs declaration tables.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
