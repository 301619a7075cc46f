package confluent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const clustersPath = "/cmk/v2/clusters"

// Cluster is a Kafka cluster as reported by the cmk/v2 API.
type Cluster struct {
	ID   string      `json:"id"`
	Spec ClusterSpec `json:"spec"`
}

// ClusterSpec carries the subset of cluster metadata the manager needs.
type ClusterSpec struct {
	DisplayName string              `json:"display_name"`
	Cloud       string              `json:"cloud,omitempty"`
	Region      string              `json:"region,omitempty"`
	Environment *ClusterEnvironment `json:"environment,omitempty"`
}

// ClusterEnvironment is the environment reference embedded in a cluster spec.
type ClusterEnvironment struct {
	ID string `json:"id"`
}

// GetCluster fetches a cluster by ID. The environment query parameter is
// optional; when the caller already knows the owning environment it narrows
// the lookup, otherwise the API resolves the cluster across environments.
func (c *Client) GetCluster(ctx context.Context, id, environmentID string) (*Cluster, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("get cluster: id is required")
	}

	var query map[string]string
	if environmentID != "" {
		query = map[string]string{"environment": environmentID}
	}

	var cluster Cluster
	path := clustersPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &cluster, fmt.Sprintf("get cluster %s", id)); err != nil {
		return nil, err
	}
	return &cluster, nil
}

// EnvironmentID returns the owning environment of the cluster, or empty when
// the API response did not include one.
func (cl *Cluster) EnvironmentID() string {
	if cl == nil || cl.Spec.Environment == nil {
		return ""
	}
	return cl.Spec.Environment.ID
}
