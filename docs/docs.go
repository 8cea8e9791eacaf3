// Package docs holds the Swagger document served at /swagger and registers it
// with swag. Keep it in step with the handler annotations.
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
        "/api/auth/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Auth health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.serviceHealthResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Accepts username (or email) and password. When demo role login is enabled, a role alone signs in as that role's demo account.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}, "headers": {"Set-Cookie": {"type": "string", "description": "sid session cookie"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.usersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/audit/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Recent auth events",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of events (1-500, default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.auditEventResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/routes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["routes"],
                "summary": "Page routes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.routesResponse"}}
                }
            }
        },
        "/api/routes/decision": {
            "get": {
                "produces": ["application/json"],
                "tags": ["routes"],
                "summary": "Guard decision",
                "parameters": [
                    {"type": "string", "description": "Page path, e.g. /finance/reports", "name": "path", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.decisionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "department": {"type": "string"},
                "employeeId": {"type": "string"},
                "avatar": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "department": {"type": "string"},
                "employeeId": {"type": "string"}
            }
        },
        "handler.registerResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "employeeId": {"type": "string"}
            }
        },
        "handler.serviceHealthResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "service": {"type": "string"}
            }
        },
        "handler.usersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}},
                "count": {"type": "integer"}
            }
        },
        "handler.auditEventResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "remoteAddr": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "guard.Route": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "allowedRoles": {"type": "array", "items": {"type": "string"}},
                "fallback": {"type": "string"},
                "anonymousFallback": {"type": "string"},
                "public": {"type": "boolean"}
            }
        },
        "guard.Decision": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "handler.routesResponse": {
            "type": "object",
            "properties": {
                "routes": {"type": "array", "items": {"$ref": "#/definitions/guard.Route"}}
            }
        },
        "handler.decisionResponse": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "decision": {"$ref": "#/definitions/guard.Decision"}
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
	Title:            "Asset Verification Auth API",
	Description:      "Session authentication, registration and page routing for the asset verification application.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
