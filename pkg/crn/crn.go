// Package crn builds Confluent resource names, the hierarchical strings
// that scope a role binding's effect.
package crn

import (
	"fmt"
	"sort"
)

// Names of the scope templates Patterns returns.
const (
	ScopeEnvironment    = "environment"
	ScopeKafkaCluster   = "kafka-cluster"
	ScopeTopic          = "topic"
	ScopeConsumerGroup  = "consumer-group"
	ScopeSchemaRegistry = "schema-registry"
)

// Wildcard matches any identifier at a CRN level.
const Wildcard = "*"

const prefix = "crn://confluent.cloud"

// Builder interpolates CRN strings from a fixed set of identifiers. Any
// empty identifier falls back to the wildcard, so a Builder with only a
// cluster ID still yields usable cluster-level scopes.
type Builder struct {
	OrganizationID string
	EnvironmentID  string
	ClusterID      string
}

func (b Builder) org() string {
	if b.OrganizationID == "" {
		return Wildcard
	}
	return b.OrganizationID
}

func (b Builder) env() string {
	if b.EnvironmentID == "" {
		return Wildcard
	}
	return b.EnvironmentID
}

func (b Builder) cluster() string {
	if b.ClusterID == "" {
		return Wildcard
	}
	return b.ClusterID
}

// Environment scopes to the whole environment.
func (b Builder) Environment() string {
	return fmt.Sprintf("%s/organization=%s/environment=%s", prefix, b.org(), b.env())
}

// KafkaCluster scopes to one Kafka cluster inside the environment.
func (b Builder) KafkaCluster() string {
	return fmt.Sprintf("%s/organization=%s/environment=%s/cloud-cluster=%s", prefix, b.org(), b.env(), b.cluster())
}

// Topic scopes to topics matching pattern on the cluster. A pattern ending
// in "*" acts as a prefix match on the Confluent side.
func (b Builder) Topic(pattern string) string {
	if pattern == "" {
		pattern = Wildcard
	}
	return fmt.Sprintf("%s/organization=%s/environment=%s/cloud-cluster=%s/kafka=%s/topic=%s",
		prefix, b.org(), b.env(), b.cluster(), b.cluster(), pattern)
}

// ConsumerGroup scopes to consumer groups matching pattern on the cluster.
func (b Builder) ConsumerGroup(pattern string) string {
	if pattern == "" {
		pattern = Wildcard
	}
	return fmt.Sprintf("%s/organization=%s/environment=%s/cloud-cluster=%s/kafka=%s/group=%s",
		prefix, b.org(), b.env(), b.cluster(), b.cluster(), pattern)
}

// SchemaRegistry scopes to the environment's schema registry cluster.
// registryID is the lsrc identifier; empty means any.
func (b Builder) SchemaRegistry(registryID string) string {
	if registryID == "" {
		registryID = Wildcard
	}
	return fmt.Sprintf("%s/organization=%s/environment=%s/schema-registry=%s", prefix, b.org(), b.env(), registryID)
}

// Patterns returns the five named scope templates interpolated from the
// given identifiers, with wildcards standing in for the variable resource
// part of topic, group and schema-registry scopes.
func Patterns(organizationID, environmentID, clusterID string) map[string]string {
	b := Builder{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		ClusterID:      clusterID,
	}
	return map[string]string{
		ScopeEnvironment:    b.Environment(),
		ScopeKafkaCluster:   b.KafkaCluster(),
		ScopeTopic:          b.Topic(Wildcard),
		ScopeConsumerGroup:  b.ConsumerGroup(Wildcard),
		ScopeSchemaRegistry: b.SchemaRegistry(Wildcard),
	}
}

// ScopeNames lists the template names in stable order, for display.
func ScopeNames() []string {
	names := []string{
		ScopeEnvironment,
		ScopeKafkaCluster,
		ScopeTopic,
		ScopeConsumerGroup,
		ScopeSchemaRegistry,
	}
	sort.Strings(names)
	return names
}
