package confluent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const serviceAccountsPath = "/iam/v2/service-accounts"

// ServiceAccount is a machine identity that role bindings can target as
// principal "User:{id}".
type ServiceAccount struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

type serviceAccountList struct {
	Data []ServiceAccount `json:"data"`
}

// CreateServiceAccount registers a new service account.
func (c *Client) CreateServiceAccount(ctx context.Context, displayName, description string) (*ServiceAccount, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("create service account: display name is required")
	}
	if description == "" {
		description = fmt.Sprintf("Service account for %s", displayName)
	}

	payload := ServiceAccount{
		DisplayName: displayName,
		Description: description,
	}

	var created ServiceAccount
	if err := c.do(ctx, http.MethodPost, serviceAccountsPath, nil, payload, &created, "create service account"); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListServiceAccounts fetches the accounts visible to the credential pair.
func (c *Client) ListServiceAccounts(ctx context.Context) ([]ServiceAccount, error) {
	var list serviceAccountList
	if err := c.do(ctx, http.MethodGet, serviceAccountsPath, nil, nil, &list, "list service accounts"); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// FindServiceAccountByName locates an account by exact display name; answers
// ErrNotFound when no account carries it.
func (c *Client) FindServiceAccountByName(ctx context.Context, displayName string) (*ServiceAccount, error) {
	accounts, err := c.ListServiceAccounts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		if accounts[i].DisplayName == displayName {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("find service account %q: %w", displayName, ErrNotFound)
}
