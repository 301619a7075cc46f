package confluent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const environmentsPath = "/org/v2/environments"

// Environment is an organization environment as reported by the org/v2 API.
type Environment struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// GetEnvironment fetches an environment by ID.
func (c *Client) GetEnvironment(ctx context.Context, id string) (*Environment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("get environment: id is required")
	}

	var env Environment
	path := environmentsPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &env, fmt.Sprintf("get environment %s", id)); err != nil {
		return nil, err
	}
	return &env, nil
}

// ListEnvironments returns every environment visible to the credentials.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	var list environmentList
	if err := c.do(ctx, http.MethodGet, environmentsPath, nil, nil, &list, "list environments"); err != nil {
		return nil, err
	}
	return list.Data, nil
}

type environmentList struct {
	Data []Environment `json:"data"`
}
