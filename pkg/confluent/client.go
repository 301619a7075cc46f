// Package confluent is a thin client for the Confluent Cloud REST API,
// covering the IAM surface (role bindings, service accounts, API keys) and
// the cluster/environment reads the tenant tooling needs.
package confluent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/streamhaus/confluent-tenant-manager/pkg/httpclient"
)

// DefaultBaseURL is the public Confluent Cloud endpoint.
const DefaultBaseURL = "https://api.confluent.cloud"

// Config holds the immutable settings for a Client. APIKey and APISecret
// become the Basic-auth header on every request.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client issues synchronous calls against the Confluent Cloud API. It keeps
// no local copy of remote state; every method is a single blocking HTTP call.
type Client struct {
	rc *resty.Client
}

// NewClient builds a Client from the credential pair.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, fmt.Errorf("confluent: api key and secret are required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := httpclient.NewRestyHTTPClient(cfg.Timeout).
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.APIKey, cfg.APISecret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{rc: rc}, nil
}

// BaseURL reports the endpoint the client targets.
func (c *Client) BaseURL() string { return c.rc.BaseURL }

// do runs one request: build URL, issue the call, classify non-2xx into an
// *APIError, decode the JSON body into out when a destination is given.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any, op string) error {
	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", op, apiErrorFrom(resp))
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}
