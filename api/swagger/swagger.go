package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SmartCampus Outpass API",
        "description": "Four-stage outpass approval workflow for hostel residents",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Outpasses", "description": "Apply, approve, reject and track outpasses"},
        {"name": "Ops", "description": "Health and readiness checks"}
    ],
    "paths": {
        "/outpasses": {
            "post": {
                "tags": ["Outpasses"],
                "summary": "Apply for an outpass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "Idempotency-Key", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitOutpassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INELIGIBLE_REQUESTER or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "IDEMPOTENCY_CONFLICT or REQUEST_IN_PROGRESS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/mine": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "List my outpasses, newest first",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/pending": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "List outpasses waiting at a stage, oldest first",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv"],
                "parameters": [
                    {"name": "stage", "in": "query", "required": true, "type": "string", "enum": ["faculty-advisor", "hostel-coordinator", "hod", "warden"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/risk-check": {
            "post": {
                "tags": ["Outpasses"],
                "summary": "Advisory risk score for a prospective outpass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RiskCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/{id}": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "Get an outpass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/{id}/history": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "Append-only event log of an outpass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/{id}/stages/{stage}/{action}": {
            "post": {
                "tags": ["Outpasses"],
                "summary": "Approve or reject a stage",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "stage", "in": "path", "required": true, "type": "string", "enum": ["faculty-advisor", "hostel-coordinator", "hod", "warden"]},
                    {"name": "action", "in": "path", "required": true, "type": "string", "enum": ["approve", "reject"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "NOT_AUTHORIZED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "STAGE_MISMATCH or REQUEST_ALREADY_TERMINAL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/{id}/gate-pass": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "Download the PDF gate pass of an approved outpass",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "412": {"description": "PRECONDITION_FAILED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outpasses/{id}/gate-pass/link": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "Create a signed, expiring gate pass link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gate-passes/{token}": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "Download a gate pass through a signed link",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "401": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/outpasses": {
            "get": {
                "tags": ["Outpasses"],
                "summary": "List a student's outpasses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubmitOutpassRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "destination": {"type": "string"},
                "out_date": {"type": "string", "example": "2026-10-20"},
                "out_time": {"type": "string", "example": "09:00"},
                "return_date": {"type": "string", "example": "2026-10-20"},
                "return_time": {"type": "string", "example": "18:00"}
            },
            "required": ["reason", "destination", "out_date", "out_time", "return_date", "return_time"]
        },
        "RiskCheckRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "destination": {"type": "string"},
                "out_time": {"type": "string", "example": "21:30"},
                "student_id": {"type": "string"}
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
