package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
	"github.com/streamhaus/confluent-tenant-manager/pkg/notify"
	"github.com/streamhaus/confluent-tenant-manager/pkg/tenantspec"
)

// ProvisionResult is everything a tenant needs to start producing: the
// service account, a freshly minted API key and the grant report. The key
// secret is only ever available here, the API never returns it again.
type ProvisionResult struct {
	ServiceAccount *confluent.ServiceAccount `json:"service_account"`
	ReusedAccount  bool                      `json:"reused_account"`
	APIKey         *confluent.APIKey         `json:"api_key"`
	EnvironmentID  string                    `json:"environment_id,omitempty"`
	Report         *GrantReport              `json:"report"`
}

// TenantApplyResult pairs a roster tenant with its provisioning outcome.
type TenantApplyResult struct {
	Project string           `json:"project"`
	Result  *ProvisionResult `json:"result,omitempty"`
	Err     error            `json:"-"`
}

// ProvisionTenant sets up a tenant end to end: service account (reused when
// one with the conventional name exists), cluster API key and the standard
// grant set. Each call mints a new API key.
func (m *Manager) ProvisionTenant(ctx context.Context, tenant tenantspec.Tenant) (*ProvisionResult, error) {
	if tenant.Project == "" {
		return nil, fmt.Errorf("tenant project must not be empty")
	}
	clusterID := tenant.ClusterID
	if clusterID == "" {
		clusterID = m.cfg.ClusterID
	}
	if clusterID == "" {
		return nil, fmt.Errorf("tenant %s: cluster id must not be empty", tenant.Project)
	}

	saName := tenant.Project + "-service-account"
	sa, err := m.client.FindServiceAccountByName(ctx, saName)
	reused := true
	if errors.Is(err, confluent.ErrNotFound) {
		sa, err = m.client.CreateServiceAccount(ctx, saName, "Service account for tenant "+tenant.Project)
		reused = false
	}
	if err != nil {
		return nil, fmt.Errorf("service account %s: %w", saName, err)
	}
	m.log.InfoObj("service account ready", "tenant_meta", map[string]any{
		"project": tenant.Project,
		"id":      sa.ID,
		"reused":  reused,
	})

	key, err := m.client.CreateAPIKey(ctx, sa.ID, clusterID, "API Key for "+saName)
	if err != nil {
		return nil, fmt.Errorf("create api key for %s: %w", sa.ID, err)
	}

	envID := m.resolveEnvironment(ctx, clusterID, tenant.EnvironmentID)
	report, err := m.GrantTenantPermissions(ctx, sa.ID, tenant.Project, clusterID, envID, tenant.Topics, tenant.ConsumerGroups)
	if err != nil {
		return nil, err
	}

	m.record(ctx, notify.EventTenantProvisioned, tenant.Project, Principal(sa.ID), nil,
		fmt.Sprintf("service account %s, %d grants created, %d skipped", sa.ID, len(report.Created), len(report.Skipped)))

	return &ProvisionResult{
		ServiceAccount: sa,
		ReusedAccount:  reused,
		APIKey:         key,
		EnvironmentID:  envID,
		Report:         report,
	}, nil
}

// ApplyTenants provisions every active tenant of a roster. Disabled tenants
// are skipped, per-tenant failures are reported instead of aborting the run.
func (m *Manager) ApplyTenants(ctx context.Context, tenants []tenantspec.Tenant) []TenantApplyResult {
	results := make([]TenantApplyResult, 0, len(tenants))
	for _, tenant := range tenants {
		if tenant.Disabled {
			m.log.InfoObj("tenant disabled, skipping", "tenant_meta", map[string]any{
				"project": tenant.Project,
			})
			continue
		}
		res, err := m.ProvisionTenant(ctx, tenant)
		if err != nil {
			m.log.ErrorObj("tenant provisioning failed", "tenant_meta", map[string]any{
				"project": tenant.Project,
				"error":   err.Error(),
			})
		}
		results = append(results, TenantApplyResult{Project: tenant.Project, Result: res, Err: err})
	}
	return results
}
