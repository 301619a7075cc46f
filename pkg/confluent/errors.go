package confluent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Classification sentinels for remote failures. Wrapped by *APIError, so
// callers can branch with errors.Is without inspecting status codes.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
)

// APIError carries a non-2xx response from the Confluent Cloud API.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("confluent api: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("confluent api: status %d", e.StatusCode)
}

// Unwrap maps well-known status codes onto the classification sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// errorEnvelope covers the two error body shapes the API answers with:
// a top-level detail/message pair, or an errors array of the same.
type errorEnvelope struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Errors  []struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	} `json:"errors"`
}

func apiErrorFrom(resp *resty.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}

	var env errorEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil {
		apiErr.Detail = env.Detail
		apiErr.Code = env.Code
		if apiErr.Detail == "" {
			apiErr.Detail = env.Message
		}
		if apiErr.Detail == "" && len(env.Errors) > 0 {
			apiErr.Detail = env.Errors[0].Detail
			apiErr.Code = env.Errors[0].Code
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = bodySnippet(resp.Body())
	}

	return apiErr
}

// bodySnippet trims an opaque response body to a loggable size.
func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
