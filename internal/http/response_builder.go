// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for the responses handlers send
// after a form post or a download: redirect with a flash notice, attachment,
// or a short plain-text error.

package http

import (
	"mime"
	"net/http"

	"bilancio/internal/session"
)

// ResponseBuilder provides a fluent API for building non-page responses.
type ResponseBuilder struct {
	flashes    *session.Manager
	flash      *session.Flash
	statusCode int
	location   string
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status. flashes
// may be nil when the response carries no notice.
func NewResponse(flashes *session.Manager) *ResponseBuilder {
	return &ResponseBuilder{
		flashes:    flashes,
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Flash queues a one-shot notice shown on the next rendered page.
func (b *ResponseBuilder) Flash(kind, message string) *ResponseBuilder {
	b.flash = &session.Flash{Kind: kind, Message: message}
	return b
}

func (b *ResponseBuilder) Success(message string) *ResponseBuilder {
	return b.Flash(session.FlashSuccess, message)
}

func (b *ResponseBuilder) Error(message string) *ResponseBuilder {
	return b.Flash(session.FlashError, message)
}

func (b *ResponseBuilder) Info(message string) *ResponseBuilder {
	return b.Flash(session.FlashInfo, message)
}

// Redirect answers 303 See Other so the browser follows with a GET.
func (b *ResponseBuilder) Redirect(location string) *ResponseBuilder {
	b.location = location
	b.statusCode = http.StatusSeeOther
	return b
}

// Attachment sends body as a download named filename.
func (b *ResponseBuilder) Attachment(filename, contentType string, body []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	b.body = body
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(content string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(content)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.flash != nil && b.flashes != nil {
		b.flashes.SetFlash(w, *b.flash)
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.location != "" {
		w.Header().Set("Location", b.location)
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}
