package confluent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const roleBindingsPath = "/iam/v2/role-bindings"

// RoleBinding associates a principal with a role over a CRN-scoped resource.
// The id is assigned by the API on creation.
type RoleBinding struct {
	ID         string `json:"id,omitempty"`
	Principal  string `json:"principal"`
	RoleName   string `json:"role_name"`
	CRNPattern string `json:"crn_pattern"`
}

// RoleBindingFilter narrows ListRoleBindings. Zero values are omitted from
// the query; the filter is passed through in a single request, unpaginated.
type RoleBindingFilter struct {
	Principal string
	RoleName  string
}

type roleBindingList struct {
	Data []RoleBinding `json:"data"`
}

// ListRoleBindings fetches role bindings, optionally filtered by principal
// and role name.
func (c *Client) ListRoleBindings(ctx context.Context, filter RoleBindingFilter) ([]RoleBinding, error) {
	query := make(map[string]string, 2)
	if filter.Principal != "" {
		query["principal"] = filter.Principal
	}
	if filter.RoleName != "" {
		query["role_name"] = filter.RoleName
	}

	var list roleBindingList
	if err := c.do(ctx, http.MethodGet, roleBindingsPath, query, nil, &list, "list role bindings"); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateRoleBinding grants roleName to principal over the crnPattern scope
// and returns the created binding, id included. A 400 answer carries the
// API's detail text in the returned *APIError.
func (c *Client) CreateRoleBinding(ctx context.Context, principal, roleName, crnPattern string) (*RoleBinding, error) {
	if strings.TrimSpace(principal) == "" {
		return nil, fmt.Errorf("create role binding: principal is required")
	}
	if strings.TrimSpace(roleName) == "" {
		return nil, fmt.Errorf("create role binding: role name is required")
	}
	if strings.TrimSpace(crnPattern) == "" {
		return nil, fmt.Errorf("create role binding: crn pattern is required")
	}

	payload := RoleBinding{
		Principal:  principal,
		RoleName:   roleName,
		CRNPattern: crnPattern,
	}

	var created RoleBinding
	if err := c.do(ctx, http.MethodPost, roleBindingsPath, nil, payload, &created, "create role binding"); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetRoleBinding fetches one binding by id. A missing id answers ErrNotFound.
func (c *Client) GetRoleBinding(ctx context.Context, id string) (*RoleBinding, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("get role binding: id is required")
	}

	var binding RoleBinding
	path := roleBindingsPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &binding, "get role binding"); err != nil {
		return nil, err
	}
	return &binding, nil
}

// DeleteRoleBinding removes a binding by id. A nil error means the API
// acknowledged the deletion.
func (c *Client) DeleteRoleBinding(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete role binding: id is required")
	}

	path := roleBindingsPath + "/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, "delete role binding")
}
