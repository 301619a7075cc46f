package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/streamhaus/confluent-tenant-manager/internal/config"
	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
	"github.com/streamhaus/confluent-tenant-manager/pkg/tenantspec"
)

// fakeCloud is an in-memory stand-in for the Confluent Cloud API surface the
// manager touches: role bindings, service accounts, API keys and clusters.
type fakeCloud struct {
	mu         sync.Mutex
	nextID     int
	bindings   map[string]confluent.RoleBinding
	accounts   []confluent.ServiceAccount
	clusterEnv map[string]string
	rejectCRN  string
	clusterErr bool
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		bindings:   make(map[string]confluent.RoleBinding),
		clusterEnv: make(map[string]string),
	}
}

func (f *fakeCloud) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%05d", prefix, f.nextID)
}

func (f *fakeCloud) seedBinding(principal, role, crnPattern string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("rb")
	f.bindings[id] = confluent.RoleBinding{ID: id, Principal: principal, RoleName: role, CRNPattern: crnPattern}
	return id
}

func (f *fakeCloud) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/iam/v2/role-bindings", f.handleBindings)
	mux.HandleFunc("/iam/v2/role-bindings/", f.handleBinding)
	mux.HandleFunc("/iam/v2/service-accounts", f.handleAccounts)
	mux.HandleFunc("/iam/v2/api-keys", f.handleAPIKeys)
	mux.HandleFunc("/cmk/v2/clusters/", f.handleCluster)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeCloud) handleBindings(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		principal := r.URL.Query().Get("principal")
		role := r.URL.Query().Get("role_name")
		out := []confluent.RoleBinding{}
		for _, b := range f.bindings {
			if principal != "" && b.Principal != principal {
				continue
			}
			if role != "" && b.RoleName != role {
				continue
			}
			out = append(out, b)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": out})
	case http.MethodPost:
		var in confluent.RoleBinding
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.rejectCRN != "" && strings.Contains(in.CRNPattern, f.rejectCRN) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid CRN pattern: " + in.CRNPattern})
			return
		}
		for _, b := range f.bindings {
			if b.Principal == in.Principal && b.RoleName == in.RoleName && b.CRNPattern == in.CRNPattern {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"detail": "role binding already exists"})
				return
			}
		}
		in.ID = f.id("rb")
		f.bindings[in.ID] = in
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeCloud) handleBinding(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/iam/v2/role-bindings/")
	b, ok := f.bindings[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": fmt.Sprintf("role binding %s not found", id)})
		return
	}

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(b)
	case http.MethodDelete:
		delete(f.bindings, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeCloud) handleAccounts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"data": f.accounts})
	case http.MethodPost:
		var in confluent.ServiceAccount
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		in.ID = f.id("sa")
		f.accounts = append(f.accounts, in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeCloud) handleAPIKeys(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in confluent.APIKey
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	in.ID = f.id("ak")
	in.Spec.Secret = "secret-material-" + in.ID
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(in)
}

func (f *fakeCloud) handleCluster(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clusterErr {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/cmk/v2/clusters/")
	env, ok := f.clusterEnv[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": fmt.Sprintf("cluster %s not found", id)})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id": id,
		"spec": map[string]any{
			"display_name": "test-cluster",
			"environment":  map[string]string{"id": env},
		},
	})
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()

	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	if cfg.APISecret == "" {
		cfg.APISecret = "test-secret"
	}
	if cfg.OrganizationID == "" {
		cfg.OrganizationID = "*"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.JournalType == "" {
		cfg.JournalType = config.JournalNone
	}

	m, err := NewManager(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestPrincipal(t *testing.T) {
	if got := Principal("sa-12345"); got != "User:sa-12345" {
		t.Fatalf("Principal() = %q, want User:sa-12345", got)
	}
	if got := Principal("ServiceAccount:sa-12345"); got != "ServiceAccount:sa-12345" {
		t.Fatalf("prefixed principal rewritten to %q", got)
	}
}

func TestGrantTenantPermissionsCreatesStandardSet(t *testing.T) {
	cloud := newFakeCloud()
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	report, err := m.GrantTenantPermissions(context.Background(), "sa-777", "billing", "lkc-1", "env-42", nil, nil)
	if err != nil {
		t.Fatalf("GrantTenantPermissions: %v", err)
	}
	if len(report.Created) != 5 || len(report.Skipped) != 0 || len(report.Failed) != 0 {
		t.Fatalf("report = %d created %d skipped %d failed, want 5/0/0",
			len(report.Created), len(report.Skipped), len(report.Failed))
	}
	if !report.Clean() {
		t.Fatal("Clean() = false for report without failures")
	}

	var topics, groups, clusters int
	for _, b := range cloud.bindings {
		if b.Principal != "User:sa-777" {
			t.Fatalf("binding %s has principal %q, want User:sa-777", b.ID, b.Principal)
		}
		if !strings.Contains(b.CRNPattern, "environment=env-42") {
			t.Fatalf("binding %s CRN %q missing environment", b.ID, b.CRNPattern)
		}
		switch {
		case strings.Contains(b.CRNPattern, "/topic=billing-*"):
			topics++
		case strings.Contains(b.CRNPattern, "/group=billing-*"):
			groups++
		case strings.HasSuffix(b.CRNPattern, "/cloud-cluster=lkc-1"):
			clusters++
		default:
			t.Fatalf("unexpected CRN %q", b.CRNPattern)
		}
	}
	if topics != 2 || groups != 2 || clusters != 1 {
		t.Fatalf("binding scopes = %d topics %d groups %d clusters, want 2/2/1", topics, groups, clusters)
	}

	// A second sweep finds everything in place.
	report, err = m.GrantTenantPermissions(context.Background(), "sa-777", "billing", "lkc-1", "env-42", nil, nil)
	if err != nil {
		t.Fatalf("second GrantTenantPermissions: %v", err)
	}
	if len(report.Created) != 0 || len(report.Skipped) != 5 {
		t.Fatalf("second sweep = %d created %d skipped, want 0/5", len(report.Created), len(report.Skipped))
	}
	for _, o := range report.Skipped {
		if o.Reason != "already exists" {
			t.Fatalf("skip reason = %q", o.Reason)
		}
	}
	if len(cloud.bindings) != 5 {
		t.Fatalf("server holds %d bindings after second sweep, want 5", len(cloud.bindings))
	}
}

func TestGrantTenantPermissionsCollectsFailures(t *testing.T) {
	cloud := newFakeCloud()
	cloud.rejectCRN = "/group="
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	report, err := m.GrantTenantPermissions(context.Background(), "sa-777", "billing", "lkc-1", "env-42", nil, nil)
	if err != nil {
		t.Fatalf("GrantTenantPermissions: %v", err)
	}
	if len(report.Created) != 3 || len(report.Failed) != 2 {
		t.Fatalf("report = %d created %d failed, want 3/2", len(report.Created), len(report.Failed))
	}
	if report.Clean() {
		t.Fatal("Clean() = true despite failures")
	}
	for _, o := range report.Failed {
		if !strings.Contains(o.Reason, "Invalid CRN pattern") {
			t.Fatalf("failure reason %q does not carry the API detail", o.Reason)
		}
	}
}

func TestGrantTenantPermissionsExplicitPatterns(t *testing.T) {
	cloud := newFakeCloud()
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	topics := []string{"orders.events", "orders.dlq"}
	groups := []string{"orders-readers"}
	report, err := m.GrantTenantPermissions(context.Background(), "sa-1", "orders", "lkc-1", "env-42", topics, groups)
	if err != nil {
		t.Fatalf("GrantTenantPermissions: %v", err)
	}
	// 2 roles per topic pattern, 2 per group pattern, 1 cluster read.
	if got := len(report.Created); got != 7 {
		t.Fatalf("created %d bindings, want 7", got)
	}

	var dlq bool
	for _, b := range cloud.bindings {
		if strings.HasSuffix(b.CRNPattern, "/topic=orders.dlq") {
			dlq = true
		}
	}
	if !dlq {
		t.Fatal("no binding created for the orders.dlq topic pattern")
	}
}

func TestRevokeTenantPermissions(t *testing.T) {
	cloud := newFakeCloud()
	cloud.seedBinding("User:sa-9", "DeveloperRead", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=billing-*")
	cloud.seedBinding("User:sa-9", "DeveloperWrite", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=billing-*")
	keep := cloud.seedBinding("User:sa-9", "DeveloperRead", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=payments-*")
	other := cloud.seedBinding("User:sa-2", "DeveloperRead", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=billing-*")

	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	report, err := m.RevokeTenantPermissions(context.Background(), "sa-9", "billing")
	if err != nil {
		t.Fatalf("RevokeTenantPermissions: %v", err)
	}
	if report.Deleted != 2 || report.Failed != 0 {
		t.Fatalf("report = %d deleted %d failed, want 2/0", report.Deleted, report.Failed)
	}

	if _, ok := cloud.bindings[keep]; !ok {
		t.Fatal("binding for another project was deleted")
	}
	if _, ok := cloud.bindings[other]; !ok {
		t.Fatal("binding of another principal was deleted")
	}
	if len(cloud.bindings) != 2 {
		t.Fatalf("server holds %d bindings, want 2", len(cloud.bindings))
	}
}

func TestProvisionTenant(t *testing.T) {
	cloud := newFakeCloud()
	cloud.clusterEnv["lkc-1"] = "env-42"
	srv := cloud.server(t)

	journalPath := filepath.Join(t.TempDir(), "journal.db")
	m := newTestManager(t, &config.Config{
		BaseURL:     srv.URL,
		JournalType: config.JournalBBolt,
		JournalPath: journalPath,
	})

	tenant := tenantspec.Tenant{Project: "billing", ClusterID: "lkc-1"}
	res, err := m.ProvisionTenant(context.Background(), tenant)
	if err != nil {
		t.Fatalf("ProvisionTenant: %v", err)
	}

	if res.ServiceAccount.DisplayName != "billing-service-account" {
		t.Fatalf("service account name = %q", res.ServiceAccount.DisplayName)
	}
	if res.ReusedAccount {
		t.Fatal("fresh provisioning reported a reused account")
	}
	if res.APIKey == nil || res.APIKey.Spec.Secret == "" {
		t.Fatal("provisioning returned no API key secret")
	}
	if res.EnvironmentID != "env-42" {
		t.Fatalf("environment = %q, want autodetected env-42", res.EnvironmentID)
	}
	if len(res.Report.Created) != 5 {
		t.Fatalf("created %d grants, want 5", len(res.Report.Created))
	}

	entries, err := m.RecentJournal(100)
	if err != nil {
		t.Fatalf("RecentJournal: %v", err)
	}
	actions := map[string]int{}
	for _, e := range entries {
		actions[e.Action]++
	}
	if actions["tenant.provisioned"] != 1 || actions["binding.created"] != 5 {
		t.Fatalf("journal actions = %v, want 1 tenant.provisioned and 5 binding.created", actions)
	}

	// Provisioning again reuses the account, skips the grants and mints a
	// fresh key.
	res2, err := m.ProvisionTenant(context.Background(), tenant)
	if err != nil {
		t.Fatalf("second ProvisionTenant: %v", err)
	}
	if !res2.ReusedAccount {
		t.Fatal("second provisioning did not reuse the service account")
	}
	if res2.ServiceAccount.ID != res.ServiceAccount.ID {
		t.Fatalf("service account changed across runs: %s then %s", res.ServiceAccount.ID, res2.ServiceAccount.ID)
	}
	if len(res2.Report.Created) != 0 || len(res2.Report.Skipped) != 5 {
		t.Fatalf("second report = %d created %d skipped, want 0/5",
			len(res2.Report.Created), len(res2.Report.Skipped))
	}
	if res2.APIKey.ID == res.APIKey.ID {
		t.Fatal("second provisioning did not mint a new API key")
	}
}

func TestProvisionTenantEnvironmentFallback(t *testing.T) {
	cloud := newFakeCloud()
	cloud.clusterErr = true
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	res, err := m.ProvisionTenant(context.Background(), tenantspec.Tenant{Project: "billing", ClusterID: "lkc-1"})
	if err != nil {
		t.Fatalf("ProvisionTenant: %v", err)
	}
	if res.EnvironmentID != "" {
		t.Fatalf("environment = %q, want empty after failed autodetection", res.EnvironmentID)
	}
	for _, b := range cloud.bindings {
		if !strings.Contains(b.CRNPattern, "environment=*") {
			t.Fatalf("CRN %q did not degrade to a wildcard environment", b.CRNPattern)
		}
	}
}

func TestApplyTenants(t *testing.T) {
	cloud := newFakeCloud()
	cloud.clusterEnv["lkc-1"] = "env-42"
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	tenants := []tenantspec.Tenant{
		{Project: "billing", ClusterID: "lkc-1"},
		{Project: "legacy", ClusterID: "lkc-1", Disabled: true},
		{Project: "orders", ClusterID: "lkc-1"},
	}
	results := m.ApplyTenants(context.Background(), tenants)
	if len(results) != 2 {
		t.Fatalf("ApplyTenants returned %d results, want 2 (disabled skipped)", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("tenant %s failed: %v", r.Project, r.Err)
		}
		if r.Result == nil || len(r.Result.Report.Created) != 5 {
			t.Fatalf("tenant %s: unexpected result %+v", r.Project, r.Result)
		}
	}
}

func TestListTenantPermissions(t *testing.T) {
	cloud := newFakeCloud()
	cloud.seedBinding("User:sa-9", "DeveloperRead", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=billing-*")
	cloud.seedBinding("User:sa-2", "DeveloperRead", "crn://confluent.cloud/organization=*/environment=env-1/cloud-cluster=lkc-1/kafka=lkc-1/topic=orders-*")
	srv := cloud.server(t)
	m := newTestManager(t, &config.Config{BaseURL: srv.URL})

	bindings, err := m.ListTenantPermissions(context.Background(), "sa-9")
	if err != nil {
		t.Fatalf("ListTenantPermissions: %v", err)
	}
	if len(bindings) != 1 || bindings[0].Principal != "User:sa-9" {
		t.Fatalf("bindings = %+v, want exactly the sa-9 binding", bindings)
	}
}
