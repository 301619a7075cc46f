package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
	"github.com/streamhaus/confluent-tenant-manager/pkg/crn"
	"github.com/streamhaus/confluent-tenant-manager/pkg/notify"
	"github.com/streamhaus/confluent-tenant-manager/pkg/roles"
)

// Grant is one role attachment the manager intends to hold for a tenant.
type Grant struct {
	Role    string `json:"role"`
	Scope   string `json:"scope"`
	Pattern string `json:"pattern"`
}

// GrantOutcome records what happened to a single grant.
type GrantOutcome struct {
	Grant
	BindingID string `json:"binding_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// GrantReport buckets grant outcomes the way operators read them.
type GrantReport struct {
	Created []GrantOutcome `json:"created"`
	Skipped []GrantOutcome `json:"skipped"`
	Failed  []GrantOutcome `json:"failed"`
}

// Total counts all outcomes in the report.
func (r *GrantReport) Total() int { return len(r.Created) + len(r.Skipped) + len(r.Failed) }

// Clean reports whether every grant either already existed or was created.
func (r *GrantReport) Clean() bool { return len(r.Failed) == 0 }

// RevokeReport summarizes a revocation sweep.
type RevokeReport struct {
	Deleted  int      `json:"deleted"`
	Failed   int      `json:"failed"`
	Bindings []string `json:"bindings,omitempty"`
}

// tenantGrants expands the standard permission set for a tenant: read and
// write on every topic and consumer group pattern, plus cluster metadata
// read. Empty pattern lists default to "<project>-*".
func tenantGrants(project, clusterID string, topics, groups []string) []Grant {
	if len(topics) == 0 {
		topics = []string{project + "-*"}
	}
	if len(groups) == 0 {
		groups = []string{project + "-*"}
	}

	var grants []Grant
	for _, pattern := range topics {
		grants = append(grants,
			Grant{Role: roles.DeveloperRead, Scope: crn.ScopeTopic, Pattern: pattern},
			Grant{Role: roles.DeveloperWrite, Scope: crn.ScopeTopic, Pattern: pattern},
		)
	}
	for _, pattern := range groups {
		grants = append(grants,
			Grant{Role: roles.DeveloperRead, Scope: crn.ScopeConsumerGroup, Pattern: pattern},
			Grant{Role: roles.DeveloperWrite, Scope: crn.ScopeConsumerGroup, Pattern: pattern},
		)
	}
	grants = append(grants, Grant{Role: roles.DeveloperRead, Scope: crn.ScopeKafkaCluster, Pattern: clusterID})
	return grants
}

// crnFor renders a grant into its CRN pattern.
func crnFor(b crn.Builder, g Grant) (string, error) {
	switch g.Scope {
	case crn.ScopeTopic:
		return b.Topic(g.Pattern), nil
	case crn.ScopeConsumerGroup:
		return b.ConsumerGroup(g.Pattern), nil
	case crn.ScopeKafkaCluster:
		return b.KafkaCluster(), nil
	case crn.ScopeEnvironment:
		return b.Environment(), nil
	case crn.ScopeSchemaRegistry:
		return b.SchemaRegistry(g.Pattern), nil
	default:
		return "", fmt.Errorf("unknown grant scope %q", g.Scope)
	}
}

// alreadyGranted reports whether an equivalent binding exists: same role and
// the grant's pattern already contained in the binding's CRN.
func alreadyGranted(existing []confluent.RoleBinding, g Grant) (string, bool) {
	for _, b := range existing {
		if b.RoleName == g.Role && strings.Contains(b.CRNPattern, g.Pattern) {
			return b.ID, true
		}
	}
	return "", false
}

// GrantTenantPermissions ensures the tenant permission set exists for a
// service account. Grants already in place are skipped, individual create
// failures are collected rather than aborting the sweep.
func (m *Manager) GrantTenantPermissions(ctx context.Context, serviceAccountID, project, clusterID, environmentID string, topics, groups []string) (*GrantReport, error) {
	if serviceAccountID == "" {
		return nil, fmt.Errorf("service account id must not be empty")
	}
	if clusterID == "" {
		clusterID = m.cfg.ClusterID
	}
	if clusterID == "" {
		return nil, fmt.Errorf("cluster id must not be empty")
	}

	principal := Principal(serviceAccountID)
	envID := m.resolveEnvironment(ctx, clusterID, environmentID)
	builder := crn.Builder{
		OrganizationID: m.cfg.OrganizationID,
		EnvironmentID:  envID,
		ClusterID:      clusterID,
	}

	existing, err := m.client.ListRoleBindings(ctx, confluent.RoleBindingFilter{Principal: principal})
	if err != nil {
		return nil, fmt.Errorf("list existing bindings: %w", err)
	}

	report := &GrantReport{}
	for _, g := range tenantGrants(project, clusterID, topics, groups) {
		pattern, err := crnFor(builder, g)
		if err != nil {
			report.Failed = append(report.Failed, GrantOutcome{Grant: g, Reason: err.Error()})
			continue
		}

		if id, ok := alreadyGranted(existing, g); ok {
			report.Skipped = append(report.Skipped, GrantOutcome{Grant: g, BindingID: id, Reason: "already exists"})
			continue
		}

		binding, err := m.client.CreateRoleBinding(ctx, principal, g.Role, pattern)
		if errors.Is(err, confluent.ErrConflict) {
			report.Skipped = append(report.Skipped, GrantOutcome{Grant: g, Reason: "already exists"})
			continue
		}
		if err != nil {
			m.log.ErrorObj("role binding create failed", "grant_meta", map[string]any{
				"principal": principal,
				"role":      g.Role,
				"crn":       pattern,
				"error":     err.Error(),
			})
			report.Failed = append(report.Failed, GrantOutcome{Grant: g, Reason: err.Error()})
			continue
		}

		report.Created = append(report.Created, GrantOutcome{Grant: g, BindingID: binding.ID})
		m.record(ctx, notify.EventBindingCreated, project, principal, binding, "")
	}

	m.log.InfoObj("tenant grants reconciled", "grant_meta", map[string]any{
		"project":   project,
		"principal": principal,
		"created":   len(report.Created),
		"skipped":   len(report.Skipped),
		"failed":    len(report.Failed),
	})
	return report, nil
}

// ListTenantPermissions returns every binding held by a service account.
func (m *Manager) ListTenantPermissions(ctx context.Context, serviceAccountID string) ([]confluent.RoleBinding, error) {
	if serviceAccountID == "" {
		return nil, fmt.Errorf("service account id must not be empty")
	}
	return m.client.ListRoleBindings(ctx, confluent.RoleBindingFilter{Principal: Principal(serviceAccountID)})
}

// RevokeTenantPermissions deletes every binding of the service account whose
// CRN mentions the project. Delete failures are collected so one stuck
// binding does not leave the rest in place.
func (m *Manager) RevokeTenantPermissions(ctx context.Context, serviceAccountID, project string) (*RevokeReport, error) {
	if serviceAccountID == "" {
		return nil, fmt.Errorf("service account id must not be empty")
	}
	if project == "" {
		return nil, fmt.Errorf("project must not be empty")
	}

	principal := Principal(serviceAccountID)
	bindings, err := m.client.ListRoleBindings(ctx, confluent.RoleBindingFilter{Principal: principal})
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}

	report := &RevokeReport{}
	var errs []error
	for _, b := range bindings {
		if !strings.Contains(b.CRNPattern, project) {
			continue
		}
		if err := m.client.DeleteRoleBinding(ctx, b.ID); err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("delete binding %s: %w", b.ID, err))
			continue
		}
		report.Deleted++
		report.Bindings = append(report.Bindings, b.ID)
		binding := b
		m.record(ctx, notify.EventBindingDeleted, project, principal, &binding, "")
	}

	if report.Deleted > 0 {
		m.record(ctx, notify.EventTenantRevoked, project, principal,
			nil, fmt.Sprintf("%d of %d bindings deleted", report.Deleted, len(bindings)))
	}
	m.log.InfoObj("tenant grants revoked", "grant_meta", map[string]any{
		"project":   project,
		"principal": principal,
		"deleted":   report.Deleted,
		"failed":    report.Failed,
	})
	return report, errors.Join(errs...)
}
