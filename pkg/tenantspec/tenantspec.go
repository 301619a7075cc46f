// Package tenantspec loads the declarative tenant roster (YAML/JSON) that
// tenantctl applies against Confluent Cloud.
package tenantspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Tenant declares one project's footprint: where it lives and which topic
// and consumer-group patterns its service account may touch.
type Tenant struct {
	Project        string   `json:"project" yaml:"project"`
	ClusterID      string   `json:"cluster_id" yaml:"cluster_id"`
	EnvironmentID  string   `json:"environment_id" yaml:"environment_id"`
	Topics         []string `json:"topics" yaml:"topics"`
	ConsumerGroups []string `json:"consumer_groups" yaml:"consumer_groups"`
	Disabled       bool     `json:"disabled" yaml:"disabled"`
}

type roster struct {
	Tenants []Tenant `json:"tenants" yaml:"tenants"`
}

var (
	rosterMu   sync.RWMutex
	currentRos roster
	tenantIdx  map[string]Tenant
)

// Tenants returns a copy of the currently loaded roster.
func Tenants() []Tenant {
	rosterMu.RLock()
	defer rosterMu.RUnlock()

	if len(currentRos.Tenants) == 0 {
		return nil
	}

	out := make([]Tenant, len(currentRos.Tenants))
	copy(out, currentRos.Tenants)
	return out
}

// TenantByProject returns the roster entry for the given project, if loaded.
func TenantByProject(project string) (Tenant, bool) {
	project = strings.TrimSpace(project)
	if project == "" {
		return Tenant{}, false
	}

	rosterMu.RLock()
	defer rosterMu.RUnlock()

	if tenantIdx == nil {
		return Tenant{}, false
	}

	t, ok := tenantIdx[project]
	return t, ok
}

// LoadTenants loads the tenant roster from file.
func LoadTenants(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("tenants file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open tenants file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read tenants file: %w", err)
	}

	ros, err := parseRoster(raw, filepath.Ext(path))
	if err != nil {
		return err
	}

	if len(ros.Tenants) == 0 {
		return errors.New("tenants file contains no tenant entries")
	}

	idx := make(map[string]Tenant, len(ros.Tenants))
	for i := range ros.Tenants {
		t := sanitizeTenant(ros.Tenants[i])
		if err := validateTenant(t); err != nil {
			return fmt.Errorf("tenant[%d]: %w", i, err)
		}
		if _, exists := idx[t.Project]; exists {
			return fmt.Errorf("duplicate tenant project %q", t.Project)
		}
		ros.Tenants[i] = t
		idx[t.Project] = t
	}

	rosterMu.Lock()
	currentRos = ros
	tenantIdx = idx
	rosterMu.Unlock()

	return nil
}

func parseRoster(data []byte, ext string) (roster, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if ros, err := decodeRoster(d.name, data, d.fn); err == nil {
			return ros, nil
		}
	}

	return roster{}, errors.New("tenants file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func decodeRoster(name string, data []byte, fn unmarshalFn) (roster, error) {
	var ros roster
	if err := fn(data, &ros); err != nil {
		return roster{}, fmt.Errorf("decode %s tenants: %w", name, err)
	}
	return ros, nil
}

// sanitizeTenant trims fields and fills the pattern defaults: a tenant with
// no explicit topics or groups gets the conventional "{project}-*" prefix.
func sanitizeTenant(t Tenant) Tenant {
	t.Project = strings.TrimSpace(t.Project)
	t.ClusterID = strings.TrimSpace(t.ClusterID)
	t.EnvironmentID = strings.TrimSpace(t.EnvironmentID)

	t.Topics = trimPatterns(t.Topics)
	t.ConsumerGroups = trimPatterns(t.ConsumerGroups)

	if t.Project != "" {
		if len(t.Topics) == 0 {
			t.Topics = []string{t.Project + "-*"}
		}
		if len(t.ConsumerGroups) == 0 {
			t.ConsumerGroups = []string{t.Project + "-*"}
		}
	}

	return t
}

func trimPatterns(in []string) []string {
	out := in[:0]
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateTenant(t Tenant) error {
	if t.Project == "" {
		return errors.New("project is required")
	}
	if t.ClusterID == "" {
		return fmt.Errorf("cluster_id is required for tenant %q", t.Project)
	}
	return nil
}
