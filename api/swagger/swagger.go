package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Central SENAI API",
        "description": "Class scheduling and resource booking for vocational units",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Bookings", "description": "Shift bookings, recurrence and quota"},
        {"name": "Calendar", "description": "Holiday and blackout calendar"},
        {"name": "ClassGroups", "description": "Class group roster"},
        {"name": "Courses", "description": "Courses and subject catalogue"},
        {"name": "Rooms", "description": "Room inventory"},
        {"name": "Instructors", "description": "Instructor roster"},
        {"name": "Reports", "description": "Asynchronous agenda exports"}
    ],
    "paths": {
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create booking",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Shift conflict"},
                    "422": {"description": "Holiday or quota exhausted"}
                }
            }
        },
        "/bookings/recurring": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Create a recurring series of class bookings",
                "responses": {"201": {"description": "Created, possibly partial"}}
            }
        },
        "/bookings/quota": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Remaining session quota for a group and subject",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Bookings"],
                "summary": "Update booking",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Bookings"],
                "summary": "Delete booking",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List calendar entries",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Calendar"],
                "summary": "Create or replace the entry for a date",
                "responses": {"200": {"description": "OK, includes reallocation summary for day offs"}}
            }
        },
        "/calendar/{date}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Get the entry for a date",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Calendar"],
                "summary": "Remove the entry for a date",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue report generation",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Poll report job status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "responses": {"200": {"description": "File stream"}}
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
