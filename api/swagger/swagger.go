package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Zyntra Exam API",
        "description": "Authentication and access-control service for the Zyntra exam platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login, registration and session endpoints"},
        {"name": "Provisioning", "description": "Admin delegation and student creation"},
        {"name": "Audit", "description": "Audit trail inspection and export"}
    ],
    "paths": {
        "/auth/superadmin-login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Superadmin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuperAdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session issued"},
                    "401": {"description": "Invalid credentials"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Email and password login for registered accounts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session issued"},
                    "401": {"description": "Invalid credentials"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/auth/student-login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Student login by student id",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session issued"},
                    "401": {"description": "Unknown student id"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Self-service account registration",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created"},
                    "400": {"description": "Validation failure"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/register-central/{token}": {
            "post": {
                "tags": ["Auth"],
                "summary": "Complete central admin registration via invite token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteRegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Registration completed"},
                    "400": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/register-course/{token}": {
            "post": {
                "tags": ["Auth"],
                "summary": "Complete course admin registration via invite token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteRegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Registration completed"},
                    "400": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session identity",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Session identity"},
                    "401": {"description": "Missing or invalid session"}
                }
            }
        },
        "/admin/create-central-link": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Issue a central admin registration link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCentralAdminLinkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Link issued"},
                    "403": {"description": "Role not allowed"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/admin/create-course-link": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Issue a course admin registration link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseAdminLinkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Link issued"},
                    "403": {"description": "Role not allowed"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/admin/create-student": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Create a student in the caller's course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Student created"},
                    "403": {"description": "Course scope violation"},
                    "409": {"description": "Student id already exists"}
                }
            }
        },
        "/admin/logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List recent audit log entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Audit entries"},
                    "403": {"description": "Role not allowed"}
                }
            }
        },
        "/admin/logs/export": {
            "get": {
                "tags": ["Audit"],
                "summary": "Export the audit trail as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unknown format"}
                }
            }
        }
    },
    "definitions": {
        "SuperAdminLoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "StudentLoginRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"}
            }
        },
        "RegisterUserRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CompleteRegistrationRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "CreateCentralAdminLinkRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "CreateCourseAdminLinkRequest": {
            "type": "object",
            "required": ["email", "course_name"],
            "properties": {
                "email": {"type": "string"},
                "course_name": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["student_id", "full_name", "course_name"],
            "properties": {
                "student_id": {"type": "string"},
                "full_name": {"type": "string"},
                "course_name": {"type": "string"}
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
