// Package roles documents the Confluent Cloud RBAC role vocabulary. The
// catalog is informational; the remote API is the authority on which role
// names it accepts.
package roles

import "sort"

// Role names accepted by the iam/v2 role-binding API.
const (
	OrganizationAdmin = "OrganizationAdmin"
	EnvironmentAdmin  = "EnvironmentAdmin"
	CloudClusterAdmin = "CloudClusterAdmin"
	Operator          = "Operator"
	MetricsViewer     = "MetricsViewer"
	ResourceOwner     = "ResourceOwner"
	DeveloperManage   = "DeveloperManage"
	DeveloperRead     = "DeveloperRead"
	DeveloperWrite    = "DeveloperWrite"
	KsqlAdmin         = "KsqlAdmin"
)

var descriptions = map[string]string{
	OrganizationAdmin: "Full administrative access across the whole organization",
	EnvironmentAdmin:  "Full administrative access within one environment",
	CloudClusterAdmin: "Full administrative access to a single Kafka cluster",
	Operator:          "Operate clusters: view status and metrics, no data access",
	MetricsViewer:     "Read-only access to cluster metrics and telemetry",
	ResourceOwner:     "Own a resource subtree: manage it and grant roles on it",
	DeveloperManage:   "Create and delete resources matching a scope, no data access",
	DeveloperRead:     "Consume from topics and read resource metadata in a scope",
	DeveloperWrite:    "Produce to topics and write resource metadata in a scope",
	KsqlAdmin:         "Administer ksqlDB clusters and their queries",
}

// Available returns the role catalog: name to human-readable description.
// The returned map is a copy.
func Available() map[string]string {
	out := make(map[string]string, len(descriptions))
	for name, desc := range descriptions {
		out[name] = desc
	}
	return out
}

// Names lists the known role names in sorted order.
func Names() []string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether name is part of the documented vocabulary.
// Unknown names are still sent to the API unchanged; it rejects them with
// a 400 that carries the authoritative detail.
func IsKnown(name string) bool {
	_, ok := descriptions[name]
	return ok
}

// Describe returns the description for name, or an empty string for roles
// outside the catalog.
func Describe(name string) string {
	return descriptions[name]
}
