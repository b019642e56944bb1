// Package docs registers the OpenAPI document served under /swagger.
// It is maintained by hand alongside the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Category index",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.indexResponse"}}
                }
            }
        },
        "/admin/documents": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List all documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adminListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a document",
                "parameters": [
                    {"type": "string", "description": "Title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Category id", "name": "category", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"},
                    {"type": "string", "description": "External PDF URL", "name": "pdf_url", "in": "formData"},
                    {"type": "file", "description": "PDF file (max 20 MiB)", "name": "file", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/admin/documents/{id}": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Category id", "name": "category", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"},
                    {"type": "string", "description": "External PDF URL", "name": "pdf_url", "in": "formData"},
                    {"type": "file", "description": "Replacement PDF file (max 20 MiB)", "name": "file", "in": "formData"},
                    {"type": "boolean", "description": "Drop the current upload when no file is sent", "name": "remove_file", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/admin/reconcile": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Remove orphaned PDFs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ReconcileReport"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Documents of a category",
                "parameters": [
                    {"type": "string", "description": "Category id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Case-insensitive search over title, description and id", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.categoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/download": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["documents"],
                "summary": "Download a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}/viewer": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Present a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.viewerResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/files/{key}": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["files"],
                "summary": "Stream a stored PDF",
                "parameters": [
                    {"type": "string", "description": "Object key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Refresh the catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.adminListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "documents": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}},
                "loading": {"type": "boolean"}
            }
        },
        "handler.categoryResponse": {
            "type": "object",
            "properties": {
                "category": {"$ref": "#/definitions/handler.categorySummary"},
                "count": {"type": "integer"},
                "documents": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}},
                "loading": {"type": "boolean"},
                "query": {"type": "string"}
            }
        },
        "handler.categorySummary": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "icon": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "theme": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "draft": {"$ref": "#/definitions/service.Draft"},
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "handler.indexResponse": {
            "type": "object",
            "properties": {
                "categories": {"type": "array", "items": {"$ref": "#/definitions/handler.categorySummary"}},
                "loading": {"type": "boolean"},
                "total": {"type": "integer"}
            }
        },
        "handler.viewerResponse": {
            "type": "object",
            "properties": {
                "document": {"$ref": "#/definitions/model.Document"},
                "download_name": {"type": "string"},
                "download_url": {"type": "string"},
                "last_updated": {"type": "string"},
                "mode": {"type": "string", "enum": ["embedded", "empty"]},
                "url": {"type": "string"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "enum": ["electrical", "mechanical", "process", "safety-analysis"]},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "pdf_path": {"type": "string"},
                "pdf_url": {"type": "string"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "service.Draft": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "pdf_url": {"type": "string"},
                "remove_file": {"type": "boolean"},
                "title": {"type": "string"}
            }
        },
        "service.ReconcileReport": {
            "type": "object",
            "properties": {
                "deleted": {"type": "array", "items": {"type": "string"}},
                "failed": {"type": "array", "items": {"type": "string"}},
                "referenced": {"type": "integer"},
                "scanned": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "apikey",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Normas API",
	Description:      "Catalog of technical documents (normas) grouped by category, with linked or uploaded PDFs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
