package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College Schedule API",
        "description": "Base weekday timetable with weekly and once-off edits",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Health", "description": "Probes used by orchestrators and the load test"},
        {"name": "Schedule", "description": "Resolved timetable views"},
        {"name": "Base", "description": "Base weekday timetable (admin)"},
        {"name": "Edits", "description": "Weekly and once-off overrides (admin, teacher)"},
        {"name": "Import", "description": "Excel imports (admin)"},
        {"name": "Authentication", "description": "Login and profile"}
    ],
    "paths": {
        "/healthz": {
            "get": {
                "tags": ["Health"],
                "summary": "Database round-trip probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthStatus"}},
                    "503": {"description": "Database unavailable", "schema": {"$ref": "#/definitions/HealthStatus"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Resolved timetable of a group for one date",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/week": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Resolved timetable of a group for a week",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string", "required": true},
                    {"name": "week", "in": "query", "type": "string", "format": "date", "description": "Monday of the week"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/teacher": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Lessons of a teacher across groups for a week",
                "parameters": [
                    {"name": "teacher", "in": "query", "type": "string", "required": true},
                    {"name": "week", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download a resolved week",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "week", "in": "query", "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List known groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/legacy/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Day from the legacy date-keyed table",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/base": {
            "get": {
                "tags": ["Base"],
                "summary": "List base timetable entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "weekday", "in": "query", "type": "integer"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Base"],
                "summary": "Create base timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BaseEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/base/{id}": {
            "put": {
                "tags": ["Base"],
                "summary": "Replace base timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BaseEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Base"],
                "summary": "Delete base timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/edits/weekly": {
            "get": {
                "tags": ["Edits"],
                "summary": "List weekly edits",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "day_of_week", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Edits"],
                "summary": "Create or replace a weekly edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WeeklyEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/edits/weekly/{id}": {
            "put": {
                "tags": ["Edits"],
                "summary": "Update weekly edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WeeklyEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Edits"],
                "summary": "Delete weekly edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/edits/once": {
            "get": {
                "tags": ["Edits"],
                "summary": "List once edits",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Edits"],
                "summary": "Create or replace a once edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OnceEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/edits/once/{id}": {
            "put": {
                "tags": ["Edits"],
                "summary": "Update once edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OnceEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Edits"],
                "summary": "Delete once edit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/edits/once/purge": {
            "post": {
                "tags": ["Edits"],
                "summary": "Drop once edits dated before a day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "before", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import/schedule": {
            "post": {
                "tags": ["Import"],
                "summary": "Import the schedule workbook",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import/teachers": {
            "post": {
                "tags": ["Import"],
                "summary": "Import teacher logins",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import/jobs": {
            "get": {
                "tags": ["Import"],
                "summary": "List import jobs",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import/jobs/{id}": {
            "get": {
                "tags": ["Import"],
                "summary": "Get import job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import/jobs/{id}/retry": {
            "post": {
                "tags": ["Import"],
                "summary": "Re-run an import from its archived workbook",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Still running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "detail": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "BaseEntryRequest": {
            "type": "object",
            "required": ["group_name", "weekday", "pair_number", "time_start", "time_end"],
            "properties": {
                "group_name": {"type": "string"},
                "weekday": {"type": "integer", "minimum": 1, "maximum": 7},
                "pair_number": {"type": "integer", "minimum": 1},
                "time_start": {"type": "string", "example": "08:20"},
                "time_end": {"type": "string", "example": "09:50"},
                "subject": {"type": "string"},
                "session_type": {"type": "string"},
                "room": {"type": "string"},
                "teacher": {"type": "string"}
            }
        },
        "WeeklyEditRequest": {
            "type": "object",
            "required": ["group_name", "day_of_week", "pair_number"],
            "properties": {
                "group_name": {"type": "string"},
                "day_of_week": {"type": "integer", "minimum": 1, "maximum": 7},
                "week_type": {"type": "string", "enum": ["all", "even", "odd"]},
                "pair_number": {"type": "integer", "minimum": 1},
                "time_start": {"type": "string"},
                "time_end": {"type": "string"},
                "subject": {"type": "string"},
                "session_type": {"type": "string"},
                "room": {"type": "string"},
                "teacher": {"type": "string"},
                "is_deleted": {"type": "boolean"}
            }
        },
        "OnceEditRequest": {
            "type": "object",
            "required": ["group_name", "edit_date", "pair_number"],
            "properties": {
                "group_name": {"type": "string"},
                "edit_date": {"type": "string", "format": "date"},
                "pair_number": {"type": "integer", "minimum": 1},
                "time_start": {"type": "string"},
                "time_end": {"type": "string"},
                "subject": {"type": "string"},
                "session_type": {"type": "string"},
                "room": {"type": "string"},
                "teacher": {"type": "string"},
                "is_deleted": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
