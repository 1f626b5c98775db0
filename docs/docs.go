package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "AutoAssist Support Desk",
    "description": "Ticketing backend for AutoAssistGroup: n8n email intake, agent replies, forwarding and realtime dashboards",
    "version": "2.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {
      "get": {
        "tags": [
          "health"
        ],
        "summary": "Liveness probe",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "503": {
            "description": "Service unavailable"
          }
        }
      }
    },
    "/health": {
      "get": {
        "tags": [
          "health"
        ],
        "summary": "Service health",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "503": {
            "description": "Service unavailable"
          }
        }
      }
    },
    "/api/status": {
      "get": {
        "tags": [
          "health"
        ],
        "summary": "API status",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/session/heartbeat": {
      "post": {
        "tags": [
          "session"
        ],
        "summary": "Keep the session alive",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "401": {
            "description": "Unauthorized"
          }
        }
      }
    },
    "/api/session/status": {
      "get": {
        "tags": [
          "session"
        ],
        "summary": "Current session",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/tickets": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "List tickets",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "401": {
            "description": "Unauthorized"
          }
        }
      },
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Create ticket from an n8n email",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "409": {
            "description": "Conflict"
          }
        }
      }
    },
    "/api/tickets/create": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Create a ticket from the portal form",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "400": {
            "description": "Bad request"
          }
        }
      }
    },
    "/api/tickets/search": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Search tickets",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/tickets/{id}": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Get a ticket",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      },
      "delete": {
        "tags": [
          "tickets"
        ],
        "summary": "Delete a ticket",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "403": {
            "description": "Forbidden"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/status": {
      "put": {
        "tags": [
          "tickets"
        ],
        "summary": "Update ticket status",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/assign": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Forward or take over a ticket",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/tech-director": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Refer a ticket to the Technical Director",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/reply": {
      "post": {
        "tags": [
          "replies"
        ],
        "summary": "Reply to a ticket as an agent",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/send-email": {
      "post": {
        "tags": [
          "replies"
        ],
        "summary": "Send an email template to the customer",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/ai-draft": {
      "post": {
        "tags": [
          "ai"
        ],
        "summary": "Generate an AI draft reply",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          },
          "429": {
            "description": "Too many requests"
          },
          "503": {
            "description": "Service unavailable"
          },
          "504": {
            "description": "Gateway timeout"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/claim-documents": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Upload a claim document",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/tickets/{id}/attachments/{idx}/download": {
      "get": {
        "tags": [
          "attachments"
        ],
        "summary": "Download a ticket attachment",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          },
          {
            "name": "idx",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/email-template/{type}/{ticket_id}": {
      "get": {
        "tags": [
          "replies"
        ],
        "summary": "Render an email template",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "type",
            "in": "path",
            "required": true,
            "type": "string"
          },
          {
            "name": "ticket_id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/webhook/reply": {
      "post": {
        "tags": [
          "webhooks"
        ],
        "summary": "Record a customer reply sent by n8n",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          },
          "429": {
            "description": "Too many requests"
          }
        }
      }
    },
    "/api/webhook/tech-director/{id}": {
      "post": {
        "tags": [
          "webhooks"
        ],
        "summary": "Refer a ticket through n8n",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/webhook/status/{id}": {
      "get": {
        "tags": [
          "webhooks"
        ],
        "summary": "Referral webhook status",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/webhook/test": {
      "post": {
        "tags": [
          "webhooks"
        ],
        "summary": "Send a test payload to n8n",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "403": {
            "description": "Forbidden"
          },
          "504": {
            "description": "Gateway timeout"
          }
        }
      }
    },
    "/api/n8n/email-tickets": {
      "post": {
        "tags": [
          "n8n"
        ],
        "summary": "Create a ticket from an n8n email",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "400": {
            "description": "Bad request"
          }
        }
      }
    },
    "/api/ai/display-response": {
      "post": {
        "tags": [
          "ai"
        ],
        "summary": "Store an AI draft produced by n8n",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "400": {
            "description": "Bad request"
          },
          "404": {
            "description": "Not found"
          }
        }
      }
    },
    "/api/index/tickets": {
      "get": {
        "tags": [
          "dashboard"
        ],
        "summary": "Dashboard ticket index",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/dashboard/stats": {
      "get": {
        "tags": [
          "dashboard"
        ],
        "summary": "Dashboard counters",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/members": {
      "post": {
        "tags": [
          "admin"
        ],
        "summary": "Create a member",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "400": {
            "description": "Bad request"
          },
          "403": {
            "description": "Forbidden"
          },
          "409": {
            "description": "Conflict"
          }
        }
      }
    },
    "/api/roles/{id}": {
      "delete": {
        "tags": [
          "admin"
        ],
        "summary": "Delete a role",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "403": {
            "description": "Forbidden"
          },
          "409": {
            "description": "Conflict"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    },
    "/api/common-documents": {
      "post": {
        "tags": [
          "documents"
        ],
        "summary": "Upload a common document",
        "produces": [
          "application/json"
        ],
        "responses": {
          "201": {
            "description": "Created"
          },
          "400": {
            "description": "Bad request"
          }
        }
      }
    },
    "/api/common-documents/{id}/download": {
      "get": {
        "tags": [
          "documents"
        ],
        "summary": "Download a common document",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "404": {
            "description": "Not found"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ]
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
