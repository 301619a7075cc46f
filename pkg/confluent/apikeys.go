package confluent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const apiKeysPath = "/iam/v2/api-keys"

// APIKey is a credential pair owned by a service account and bound to one
// cluster. The secret is present only in the creation response.
type APIKey struct {
	ID   string     `json:"id,omitempty"`
	Spec APIKeySpec `json:"spec"`
}

// APIKeySpec is the owner/resource envelope the API expects on creation.
type APIKeySpec struct {
	DisplayName string          `json:"display_name,omitempty"`
	Description string          `json:"description,omitempty"`
	Owner       *APIKeyOwner    `json:"owner,omitempty"`
	Resource    *APIKeyResource `json:"resource,omitempty"`
	Secret      string          `json:"secret,omitempty"`
}

// APIKeyOwner identifies the service account the key belongs to.
type APIKeyOwner struct {
	ID         string `json:"id"`
	APIVersion string `json:"api_version"`
	Kind       string `json:"kind"`
}

// APIKeyResource identifies the cluster the key grants access to.
type APIKeyResource struct {
	ID         string `json:"id"`
	APIVersion string `json:"api_version"`
	Kind       string `json:"kind"`
}

// CreateAPIKey mints a key for ownerID scoped to clusterID. The returned
// spec carries the secret; it is not retrievable afterwards.
func (c *Client) CreateAPIKey(ctx context.Context, ownerID, clusterID, displayName string) (*APIKey, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("create api key: owner id is required")
	}
	if strings.TrimSpace(clusterID) == "" {
		return nil, fmt.Errorf("create api key: cluster id is required")
	}
	if displayName == "" {
		displayName = fmt.Sprintf("API Key for %s", ownerID)
	}

	payload := APIKey{
		Spec: APIKeySpec{
			DisplayName: displayName,
			Description: fmt.Sprintf("API Key for cluster %s", clusterID),
			Owner: &APIKeyOwner{
				ID:         ownerID,
				APIVersion: "iam/v2",
				Kind:       "ServiceAccount",
			},
			Resource: &APIKeyResource{
				ID:         clusterID,
				APIVersion: "cmk/v2",
				Kind:       "Cluster",
			},
		},
	}

	var created APIKey
	if err := c.do(ctx, http.MethodPost, apiKeysPath, nil, payload, &created, "create api key"); err != nil {
		return nil, err
	}
	return &created, nil
}
