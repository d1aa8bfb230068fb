package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Console API",
        "description": "Gateway hosting timetable editing sessions against the exam scheduler backend",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduling", "description": "Timetable editing sessions and placement negotiation"},
        {"name": "Occupancy", "description": "Room occupancy views and reassignment"},
        {"name": "Imports", "description": "Bulk exam uploads"},
        {"name": "Exports", "description": "Timetable and occupancy downloads"},
        {"name": "Dashboard", "description": "Scheduling progress summary"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Open a timetable editing session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Current session state",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            },
            "delete": {
                "tags": ["Scheduling"],
                "summary": "Close an editing session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Closed"}
                }
            }
        },
        "/sessions/{id}/pool": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Filter the unscheduled course pool",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/drop": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Drop a dragged course or group onto a timetable cell",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DropRequest"}}
                ],
                "responses": {
                    "200": {"description": "Placed or parked behind a conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session busy"},
                    "422": {"description": "Rejected by the scheduler backend"}
                }
            }
        },
        "/sessions/{id}/choose-slot": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Pick a suggested slot for the pending conflict",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChooseSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No pending conflict"}
                }
            }
        },
        "/sessions/{id}/confirm": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Confirm placement despite the reported conflict",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No pending conflict"}
                }
            }
        },
        "/sessions/{id}/cancel": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Abandon the pending conflict",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/remove-exam": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Remove a placed exam back into the pool",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveExamRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/reload": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Refresh the session from the scheduler backend",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occupancy": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Room occupancy grouped by room and time slot",
                "parameters": [
                    {"name": "location", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occupancy/records": {
            "get": {
                "tags": ["Occupancy"],
                "summary": "Flat room occupancy records",
                "parameters": [
                    {"name": "location", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occupancy/change-room": {
            "patch": {
                "tags": ["Occupancy"],
                "summary": "Reassign a course group to another room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "Refreshed occupancy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Rejected by the scheduler backend"}
                }
            }
        },
        "/occupancy/students": {
            "post": {
                "tags": ["Occupancy"],
                "summary": "Students sitting a course group's exam",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports": {
            "post": {
                "tags": ["Imports"],
                "summary": "Start a bulk exam import",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "term", "in": "formData", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Current state of an import run",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{id}/events": {
            "get": {
                "tags": ["Imports"],
                "summary": "Live import progress as server-sent events",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/exports/timetable": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the scheduled timetable",
                "parameters": [
                    {"name": "timetableId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/exports/occupancy": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the room occupancy view",
                "parameters": [
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Scheduling progress summary",
                "parameters": [
                    {"name": "timetableId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "timetableId": {"type": "string"}
            }
        },
        "DragPayload": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["new_course", "new_group", "existing_group"]},
                "courseId": {"type": "string"},
                "groupId": {"type": "string"}
            }
        },
        "DropRequest": {
            "type": "object",
            "required": ["day", "slot", "payload"],
            "properties": {
                "day": {"type": "string", "format": "date"},
                "slot": {"type": "string", "enum": ["Morning", "Afternoon", "Evening"]},
                "payload": {"$ref": "#/definitions/DragPayload"}
            }
        },
        "ChooseSlotRequest": {
            "type": "object",
            "required": ["date", "slot"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "slot": {"type": "string", "enum": ["Morning", "Afternoon", "Evening"]}
            }
        },
        "RemoveExamRequest": {
            "type": "object",
            "required": ["day", "slot", "groupId", "courseId"],
            "properties": {
                "day": {"type": "string", "format": "date"},
                "slot": {"type": "string", "enum": ["Morning", "Afternoon", "Evening"]},
                "groupId": {"type": "string"},
                "courseId": {"type": "string"}
            }
        },
        "ChangeRoomRequest": {
            "type": "object",
            "required": ["courseGroup", "room"],
            "properties": {
                "courseGroup": {"type": "object"},
                "room": {"type": "object"}
            }
        },
        "StudentsRequest": {
            "type": "object",
            "required": ["courseGroup"],
            "properties": {
                "courseGroup": {"type": "object"}
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
