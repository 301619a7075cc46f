package confluent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetClusterResolvesEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cmk/v2/clusters/lkc-abc123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("environment"); got != "env-xyz" {
			t.Fatalf("environment query not forwarded, got %q", got)
		}
		json.NewEncoder(w).Encode(Cluster{
			ID: "lkc-abc123",
			Spec: ClusterSpec{
				DisplayName: "tenant-cluster",
				Cloud:       "aws",
				Region:      "eu-west-1",
				Environment: &ClusterEnvironment{ID: "env-xyz"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	cluster, err := c.GetCluster(context.Background(), "lkc-abc123", "env-xyz")
	if err != nil {
		t.Fatalf("GetCluster: %v", err)
	}
	if cluster.EnvironmentID() != "env-xyz" {
		t.Fatalf("unexpected environment id: %s", cluster.EnvironmentID())
	}
	if cluster.Spec.DisplayName != "tenant-cluster" {
		t.Fatalf("unexpected display name: %s", cluster.Spec.DisplayName)
	}
}

func TestGetClusterWithoutEnvironmentParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("environment") {
			t.Fatalf("environment query must be omitted when empty")
		}
		json.NewEncoder(w).Encode(Cluster{ID: "lkc-1", Spec: ClusterSpec{DisplayName: "plain"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	cluster, err := c.GetCluster(context.Background(), "lkc-1", "")
	if err != nil {
		t.Fatalf("GetCluster: %v", err)
	}
	if cluster.EnvironmentID() != "" {
		t.Fatalf("expected empty environment id, got %s", cluster.EnvironmentID())
	}
}

func TestGetEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org/v2/environments/env-123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Environment{ID: "env-123", DisplayName: "staging"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	env, err := c.GetEnvironment(context.Background(), "env-123")
	if err != nil {
		t.Fatalf("GetEnvironment: %v", err)
	}
	if env.DisplayName != "staging" {
		t.Fatalf("unexpected display name: %s", env.DisplayName)
	}
}

func TestListEnvironments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []Environment{
			{ID: "env-1", DisplayName: "dev"},
			{ID: "env-2", DisplayName: "prod"},
		}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	envs, err := c.ListEnvironments(context.Background())
	if err != nil {
		t.Fatalf("ListEnvironments: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(envs))
	}
}
