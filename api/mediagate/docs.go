// Package mediagate registers the OpenAPI document served at /swagger/.
// Regenerate from the handler annotations with go generate.
package mediagate

//go:generate swag init --parseDependency -g router.go -d ../../internal/mediagate/http,../../pkg/mediasdk,../../pkg/svcerr -o .

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/mediagate"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/mediasdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/mediasdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/mediasdk.HealthResponse"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mediasdk.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.TokenResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/svcerr.Response"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Refresh an access token",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mediasdk.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.TokenResponse"}},
                    "401": {"description": "Refresh token rejected", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/auth/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Verify an access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.VerifyResponse"}}
                }
            }
        },
        "/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.UserResponse"}},
                    "403": {"description": "Insufficient scope", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/auth/totp": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Enroll TOTP",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.EnrollTOTPResponse"}}
                }
            }
        },
        "/v1/scopes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List known scopes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.ScopesResponse"}}
                }
            }
        },
        "/v1/services/{service_id}/token": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Services"],
                "summary": "Exchange an identity token for a service token",
                "parameters": [
                    {"type": "string", "description": "Downstream service id", "name": "service_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.ServiceTokenResponse"}},
                    "401": {"description": "Identity token rejected", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/media": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Media"],
                "summary": "List images",
                "parameters": [
                    {"type": "integer", "description": "Offset of the first item", "name": "start", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.MediaListResponse"}},
                    "403": {"description": "Insufficient scope", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["image/jpeg", "image/png", "image/gif", "image/webp"],
                "produces": ["application/json"],
                "tags": ["Media"],
                "summary": "Upload an image",
                "responses": {
                    "200": {"description": "Duplicate", "schema": {"$ref": "#/definitions/mediasdk.MediaResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/mediasdk.MediaResponse"}},
                    "413": {"description": "Too large", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/media/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Media"],
                "summary": "Get an image",
                "parameters": [
                    {"type": "string", "description": "Image id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.MediaResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Media"],
                "summary": "Delete an image",
                "parameters": [
                    {"type": "string", "description": "Image id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.DeleteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/videos/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Video"],
                "summary": "Get a video",
                "parameters": [
                    {"type": "string", "description": "Video id or short id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mediasdk.PlaybackResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/images/{account}/{id}": {
            "get": {
                "tags": ["Content"],
                "summary": "Fetch a signed image",
                "parameters": [
                    {"type": "string", "description": "Account hash", "name": "account", "in": "path", "required": true},
                    {"type": "string", "description": "Image id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Signature", "name": "hmac_token", "in": "query", "required": true},
                    {"type": "integer", "description": "Expiry, unix seconds", "name": "token_exp", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Bad signature or expired link", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        },
        "/v1/videos/{exp}/{sig}/{id}/{file}": {
            "get": {
                "tags": ["Content"],
                "summary": "Fetch a signed video file",
                "parameters": [
                    {"type": "integer", "description": "Expiry, unix seconds", "name": "exp", "in": "path", "required": true},
                    {"type": "string", "description": "Signature", "name": "sig", "in": "path", "required": true},
                    {"type": "string", "description": "Video id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Playlist or segment name", "name": "file", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Bad signature or expired link", "schema": {"$ref": "#/definitions/svcerr.Response"}}
                }
            }
        }
    },
    "definitions": {
        "mediasdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "totp_code": {"type": "string"}
            }
        },
        "mediasdk.RefreshRequest": {
            "type": "object",
            "properties": {"refresh_token": {"type": "string"}}
        },
        "mediasdk.TokenResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "expires_at": {"type": "integer"},
                "scope": {"type": "string"},
                "payload": {}
            }
        },
        "mediasdk.VerifyResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "claims": {}}
        },
        "mediasdk.UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "display_name": {"type": "string"},
                "scope": {"type": "string"},
                "totp_enabled": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "mediasdk.UserResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "user": {"$ref": "#/definitions/mediasdk.UserInfo"}}
        },
        "mediasdk.EnrollTOTPResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "otpauth_url": {"type": "string"}}
        },
        "mediasdk.ServiceTokenResponse": {
            "type": "object",
            "properties": {"jwt": {"type": "string"}, "payload": {}}
        },
        "mediasdk.ScopeInfo": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "description": {"type": "string"}}
        },
        "mediasdk.ScopesResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "scopes": {"type": "array", "items": {"$ref": "#/definitions/mediasdk.ScopeInfo"}}
            }
        },
        "mediasdk.MediaItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "account_uid_sha256": {"type": "string"},
                "original_image_hash": {"type": "string"},
                "content_type": {"type": "string"},
                "original_size": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "is_deleted": {"type": "boolean"},
                "url": {"type": "string"},
                "url_expires_at": {"type": "integer"}
            }
        },
        "mediasdk.MediaListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "sub": {"type": "string"},
                "images": {"type": "array", "items": {"$ref": "#/definitions/mediasdk.MediaItem"}},
                "next": {"type": "integer"}
            }
        },
        "mediasdk.MediaResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "image": {"$ref": "#/definitions/mediasdk.MediaItem"},
                "duplicate": {"type": "boolean"}
            }
        },
        "mediasdk.Operation": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "operationType": {"type": "string"}}
        },
        "mediasdk.DeleteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "operation": {"$ref": "#/definitions/mediasdk.Operation"},
                "image": {"$ref": "#/definitions/mediasdk.MediaItem"}
            }
        },
        "mediasdk.VideoInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "short_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "owner": {"type": "string"},
                "master_playlist": {"type": "string"},
                "video_length": {"type": "integer"},
                "adaptive": {"type": "boolean"},
                "enable_downloads": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "mediasdk.PlaybackFrame": {
            "type": "object",
            "properties": {"start": {"type": "integer"}, "end": {"type": "integer"}}
        },
        "mediasdk.PlaybackAccess": {
            "type": "object",
            "properties": {
                "playback_url": {"type": "string"},
                "frame": {"$ref": "#/definitions/mediasdk.PlaybackFrame"}
            }
        },
        "mediasdk.PlaybackResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "video": {"$ref": "#/definitions/mediasdk.VideoInfo"},
                "access": {"$ref": "#/definitions/mediasdk.PlaybackAccess"}
            }
        },
        "mediasdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "blobs": {"type": "string"},
                "keys": {"type": "string"}
            }
        },
        "mediasdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/mediasdk.HealthChecks"}
            }
        },
        "svcerr.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {},
                "type": {"type": "string"},
                "message": {"type": "string"},
                "url": {"type": "string"},
                "debug": {}
            }
        },
        "svcerr.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/svcerr.ErrorBody"}},
                "version": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "mediagate API",
	Description:      "Capability tokens and signed media links.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
