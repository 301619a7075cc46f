package confluent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   baseURL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{APISecret: "secret"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient(Config{APIKey: "key"}); err == nil {
		t.Fatalf("expected error for missing api secret")
	}
	if _, err := NewClient(Config{APIKey: "  ", APISecret: "secret"}); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	c := newTestClient(t, "")
	if c.BaseURL() != DefaultBaseURL {
		t.Fatalf("unexpected base url: %s", c.BaseURL())
	}

	c = newTestClient(t, "https://api.example.test/")
	if c.BaseURL() != "https://api.example.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", c.BaseURL())
	}
}

func TestClientSendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			t.Fatalf("missing basic auth header")
		}
		if user != "test-key" || pass != "test-secret" {
			t.Fatalf("unexpected credentials %s:%s", user, pass)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.ListRoleBindings(context.Background(), RoleBindingFilter{}); err != nil {
		t.Fatalf("ListRoleBindings: %v", err)
	}
}

func TestClientClassifiesUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"detail":"invalid credentials","code":"401"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListRoleBindings(context.Background(), RoleBindingFilter{})
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError in chain, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "invalid credentials" {
		t.Fatalf("unexpected detail: %s", apiErr.Detail)
	}
}

func TestClientSurfacesBadRequestDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid role name: NotARole","code":"400"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreateRoleBinding(context.Background(), "User:u-1", "NotARole", "crn://confluent.cloud/organization=*")
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid role name: NotARole") {
		t.Fatalf("detail missing from error: %v", err)
	}
}

func TestClientFallsBackToBodySnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListRoleBindings(context.Background(), RoleBindingFilter{})
	if err == nil {
		t.Fatalf("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("body snippet missing from error: %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("502 must not map to a classification sentinel")
	}
}
