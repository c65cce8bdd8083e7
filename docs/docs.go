// Package docs holds the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.SignupRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.SignupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/years": {
            "get": {
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "List tax years",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/questionnaires/{year}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Current questionnaire state",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/questionnaires/{year}/answers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Answer map",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Answer the current question",
                "parameters": [
                    {"type": "integer", "name": "year", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.RecordAnswerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}},
                    "409": {"description": "not the current question, or questionnaire complete", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "value not valid for the question", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/questionnaires/{year}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Move to the next visible question",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}}}
            }
        },
        "/questionnaires/{year}/retreat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Move to the previous visible question",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}}}
            }
        },
        "/questionnaires/{year}/seek": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Jump to a question index",
                "parameters": [
                    {"type": "integer", "name": "year", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.SeekRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}}}
            }
        },
        "/questionnaires/{year}/save": {
            "put": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["questionnaires"],
                "summary": "Save answers now",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionState"}},
                    "502": {"description": "storage unavailable; state is still returned", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/questionnaires/{year}/documents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Documents required by the year's answers",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ChecklistItem"}}}}
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Profile derived from answers",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Profile"}}}
            }
        },
        "/documents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List uploaded documents",
                "parameters": [{"type": "integer", "name": "year", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a tax document",
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "name": "docType", "in": "formData", "required": true},
                    {"type": "integer", "name": "year", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "state": {"$ref": "#/definitions/model.SessionState"}
            }
        },
        "model.SignupRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}}
        },
        "model.SignupResponse": {
            "type": "object",
            "properties": {"userId": {"type": "string"}, "email": {"type": "string"}}
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "userId": {"type": "string"}, "email": {"type": "string"}}
        },
        "model.RecordAnswerRequest": {
            "type": "object",
            "properties": {"questionId": {"type": "string"}, "value": {"description": "string or number"}}
        },
        "model.SeekRequest": {
            "type": "object",
            "properties": {"index": {"type": "integer"}}
        },
        "model.Question": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "prompt": {"type": "string"},
                "kind": {"type": "string", "enum": ["choice", "free_form"]},
                "options": {"type": "array", "items": {"type": "string"}},
                "input": {"type": "string"}
            }
        },
        "model.SaveStatus": {
            "type": "object",
            "properties": {
                "pending": {"type": "boolean"},
                "lastSavedAt": {"type": "string", "format": "date-time"},
                "lastError": {"type": "string"}
            }
        },
        "model.SessionState": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "cursor": {"type": "integer"},
                "total": {"type": "integer"},
                "progress": {"type": "number"},
                "complete": {"type": "boolean"},
                "question": {"$ref": "#/definitions/model.Question"},
                "answers": {"type": "object"},
                "hydrationFailed": {"type": "boolean"},
                "save": {"$ref": "#/definitions/model.SaveStatus"}
            }
        },
        "model.YearProgress": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "title": {"type": "string"},
                "answered": {"type": "integer"},
                "total": {"type": "integer"},
                "progress": {"type": "number"}
            }
        },
        "model.Profile": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "sourceYear": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "completedYears": {"type": "array", "items": {"type": "integer"}},
                "years": {"type": "array", "items": {"$ref": "#/definitions/model.YearProgress"}}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "year": {"type": "integer"},
                "docType": {"type": "string"},
                "fileName": {"type": "string"},
                "contentType": {"type": "string"},
                "size": {"type": "integer"},
                "uploadedAt": {"type": "string", "format": "date-time"}
            }
        },
        "model.ChecklistItem": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "uploaded": {"type": "boolean"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Taxnavo Intake API",
	Description:      "Branching tax questionnaire with autosave and document checklist",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
