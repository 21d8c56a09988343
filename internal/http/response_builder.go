// Package http serves the tracker's HTML pages, HTMX partials and JSON API.
//
// This file implements the builder used for every handler response. It
// assembles HX-Trigger headers and keeps status codes and content types
// consistent between the HTML and JSON surfaces.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// HX-Trigger event names the page listens for.
const (
	EventLedgerChanged      = "ledger:changed"
	EventTransactionCreated = "transaction:created"
	EventTransactionDeleted = "transaction:deleted"
	EventFormReset          = "form:reset"
	EventNotification       = "show-notification"
)

// HTMXResponseBuilder provides a fluent API for building responses.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerLedgerChanged tells the page to reload its summary partial.
func (b *HTMXResponseBuilder) TriggerLedgerChanged() *HTMXResponseBuilder {
	return b.Trigger(EventLedgerChanged, struct{}{})
}

// TriggerTransactionCreated adds the transaction:created trigger.
func (b *HTMXResponseBuilder) TriggerTransactionCreated(tx core.Transaction) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionCreated, map[string]string{
		"id":   tx.ID,
		"kind": tx.Kind.String(),
	})
}

// TriggerTransactionDeleted adds the transaction:deleted trigger.
func (b *HTMXResponseBuilder) TriggerTransactionDeleted(id string) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionDeleted, map[string]string{"id": id})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]interface{}{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// BodyJSON encodes v as the response body. An encoding failure turns the
// response into a 500.
func (b *HTMXResponseBuilder) BodyJSON(v interface{}) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"encoding failed"}`)
	}
	b.headers["Content-Type"] = "application/json"
	b.body = append(data, '\n')
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates an error response. JSON callers get
// {"error": message}; everyone else gets an escaped HTML fragment.
func ErrorResponse(statusCode int, message string, asJSON bool) *HTMXResponseBuilder {
	if asJSON {
		return NewHTMXResponse().
			Status(statusCode).
			BodyJSON(map[string]string{"error": message})
	}
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string, asJSON bool) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, asJSON)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string, asJSON bool) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, asJSON)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string, asJSON bool) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message, asJSON)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}

// ValidationErrorResponse reports every failing field with a 422. JSON
// callers get {"errors": {"field": "message"}}. HTML callers get a list
// fragment and an error notification.
func ValidationErrorResponse(fe core.FieldErrors, asJSON bool) *HTMXResponseBuilder {
	msgs := fe.Messages()
	if asJSON {
		return NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			BodyJSON(map[string]interface{}{"errors": msgs})
	}

	fields := make([]string, 0, len(msgs))
	for f := range msgs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sb strings.Builder
	sb.WriteString(`<ul class="errors">`)
	for _, f := range fields {
		sb.WriteString(`<li data-field="`)
		sb.WriteString(template.HTMLEscapeString(f))
		sb.WriteString(`">`)
		sb.WriteString(template.HTMLEscapeString(msgs[f]))
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)

	return NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		TriggerErrorNotification("Please fix the highlighted fields").
		BodyHTML(sb.String())
}
