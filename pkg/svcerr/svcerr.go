// Package svcerr renders user-facing error bodies from a static registry of
// service errors. Every rejection carries a stable code, a message and a
// documentation link.
package svcerr

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registered codes.
const (
	ResourceNotFound           = "ResourceNotFound"
	DestinationNotSpecified    = "DestinationNotSpecified"
	JWTBearerExpired           = "JWTBearerExpired"
	JWTBearerInvalid           = "JWTBearerInvalid"
	JWTBearerNotFound          = "JWTBearerNotFound"
	DatabaseError              = "D1_ERROR"
	ServiceFailure             = "1012"
	TokenRejected              = "1336"
	StreamingRestricted        = "999"
	ExchangeTokenRejected      = "1337"
	Deprecated                 = "1030"
	InvalidAuthenticationToken = "InvalidAuthenticationToken"
	IllegalRefreshToken        = "IllegalRefreshToken"
	InsufficientScope          = "InsufficientScope"
	InvalidHmac                = "InvalidHmac"
	InvalidTimestamp           = "InvalidTimestamp"
	KeyResolutionFailed        = "KeyResolutionFailed"
	MediaNotFound              = "MediaNotFound"
	InvalidCredentials         = "InvalidCredentials"
	RateLimited                = "RateLimited"
	InvalidRequest             = "InvalidRequest"
)

const (
	// Version is reported in every error body.
	Version = "4.0.0"

	DefaultDocsBaseURL = "https://developers.homeapis.com"
)

//go:embed errors.yaml
var defaultTable []byte

// Code is a registry key. Purely numeric codes are encoded as JSON numbers.
type Code string

func (c Code) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(c), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (c *Code) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*c = Code(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = Code(s)
	return nil
}

// ServiceError is one registry entry. URL is relative to the docs base.
type ServiceError struct {
	Code    Code   `yaml:"code"`
	Type    string `yaml:"type"`
	Message string `yaml:"message"`
	URL     string `yaml:"url"`
}

// Registry maps codes to entries. It is immutable after Load.
type Registry struct {
	entries []ServiceError
	byCode  map[Code]int
	docs    *url.URL
}

// Load parses a YAML table and resolves links against docsBaseURL.
func Load(r io.Reader, docsBaseURL string) (*Registry, error) {
	docs, err := url.Parse(docsBaseURL)
	if err != nil {
		return nil, fmt.Errorf("svcerr: docs base url: %w", err)
	}
	if !docs.IsAbs() {
		return nil, fmt.Errorf("svcerr: docs base url %q is not absolute", docsBaseURL)
	}

	var doc struct {
		Errors []ServiceError `yaml:"errors"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("svcerr: decode registry: %w", err)
	}
	if len(doc.Errors) == 0 {
		return nil, errors.New("svcerr: empty registry")
	}

	reg := &Registry{
		entries: doc.Errors,
		byCode:  make(map[Code]int, len(doc.Errors)),
		docs:    docs,
	}
	for i, e := range doc.Errors {
		if e.Code == "" {
			return nil, fmt.Errorf("svcerr: entry %d has no code", i)
		}
		if _, dup := reg.byCode[e.Code]; dup {
			return nil, fmt.Errorf("svcerr: duplicate code %q", e.Code)
		}
		if _, err := url.Parse(e.URL); err != nil {
			return nil, fmt.Errorf("svcerr: %s url: %w", e.Code, err)
		}
		reg.byCode[e.Code] = i
	}
	return reg, nil
}

// New loads the embedded table with the given docs base URL.
func New(docsBaseURL string) (*Registry, error) {
	return Load(bytes.NewReader(defaultTable), docsBaseURL)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	reg, err := New(DefaultDocsBaseURL)
	if err != nil {
		panic(err)
	}
	return reg
})

// Default returns the embedded registry resolved against
// DefaultDocsBaseURL.
func Default() *Registry { return defaultRegistry() }

// Lookup returns the entry for code, or the first entry when code is
// unknown.
func (r *Registry) Lookup(code string) ServiceError {
	if i, ok := r.byCode[Code(code)]; ok {
		return r.entries[i]
	}
	return r.entries[0]
}

// Known reports whether code is registered.
func (r *Registry) Known(code string) bool {
	_, ok := r.byCode[Code(code)]
	return ok
}

// ErrorBody is one element of Response.Errors.
type ErrorBody struct {
	Code    Code   `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url"`
	Debug   any    `json:"debug,omitempty"`
}

// Response is the error envelope sent to clients.
type Response struct {
	Status  int         `json:"-"`
	Success bool        `json:"success"`
	Errors  []ErrorBody `json:"errors"`
	Version string      `json:"version"`
}

// Error lets a decoded envelope travel as an error on the client side.
func (resp Response) Error() string {
	if len(resp.Errors) == 0 {
		return fmt.Sprintf("svcerr: status %d", resp.Status)
	}
	e := resp.Errors[0]
	return fmt.Sprintf("svcerr: %s (%d): %s", e.Code, resp.Status, e.Message)
}

// FirstCode returns the code of the first error, or "".
func (resp Response) FirstCode() string {
	if len(resp.Errors) == 0 {
		return ""
	}
	return string(resp.Errors[0].Code)
}

// BuildErrorResponse builds the envelope for code. extra is attached as
// debug detail and may be nil.
func (r *Registry) BuildErrorResponse(code string, status int, extra any) Response {
	e := r.Lookup(code)
	link := e.URL
	if ref, err := url.Parse(e.URL); err == nil {
		link = r.docs.ResolveReference(ref).String()
	}
	return Response{
		Status:  status,
		Success: false,
		Errors: []ErrorBody{{
			Code:    e.Code,
			Type:    e.Type,
			Message: e.Message,
			URL:     link,
			Debug:   extra,
		}},
		Version: Version,
	}
}

// BuildErrorResponse uses the default registry.
func BuildErrorResponse(code string, status int, extra any) Response {
	return Default().BuildErrorResponse(code, status, extra)
}

// Write sends the envelope as JSON with its status. Error bodies are never
// cached.
func (resp Response) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Language", "en-US")
	h.Set("Cache-Control", "no-store")
	status := resp.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Write is shorthand for building and writing in one call.
func (r *Registry) Write(w http.ResponseWriter, code string, status int, extra any) {
	r.BuildErrorResponse(code, status, extra).Write(w)
}
