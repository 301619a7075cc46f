package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/streamhaus/confluent-tenant-manager/internal/config"
	"github.com/streamhaus/confluent-tenant-manager/internal/journal"
	"github.com/streamhaus/confluent-tenant-manager/internal/logger"
	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
	"github.com/streamhaus/confluent-tenant-manager/pkg/notify"
)

// Manager orchestrates tenant lifecycle operations against Confluent Cloud.
// Every mutation is journaled locally and fanned out to the configured
// notification sinks; neither ever fails the operation itself.
type Manager struct {
	cfg    *config.Config
	client *confluent.Client
	fanout *notify.Fanout
	store  journal.Store
	log    logger.Logger
}

// NewManager builds the manager runtime from config.
func NewManager(ctx context.Context, cfg *config.Config, log logger.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := confluent.NewClient(confluent.Config{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	store, err := journal.NewStore(cfg.JournalType, cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Manager{
		cfg:    cfg,
		client: client,
		fanout: fanout,
		store:  store,
		log:    log,
	}, nil
}

// buildFanout loads the sink registry when a notifiers file is present. A
// missing file just disables event fanout.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Fanout, error) {
	if cfg.NotifiersFile == "" {
		return notify.NewFanout(nil), nil
	}
	if _, err := os.Stat(cfg.NotifiersFile); err != nil {
		if os.IsNotExist(err) {
			log.DebugObj("no notifiers file, event fanout disabled", "notify_meta", map[string]any{
				"path": cfg.NotifiersFile,
			})
			return notify.NewFanout(nil), nil
		}
		return nil, fmt.Errorf("stat notifiers file: %w", err)
	}

	reg, err := notify.LoadSinks(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers: %w", err)
	}
	sinks, err := notify.BuildAll(ctx, notify.DefaultRegistry(), reg.Enabled(), log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}
	log.InfoObj("notifiers loaded", "notify_meta", map[string]any{
		"count": len(sinks),
	})
	return notify.NewFanout(sinks), nil
}

// Close releases the journal.
func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Client exposes the underlying API client for direct binding operations.
func (m *Manager) Client() *confluent.Client { return m.client }

// RecentJournal returns up to n recorded mutations, newest first.
func (m *Manager) RecentJournal(n int) ([]journal.Entry, error) {
	return m.store.Recent(n)
}

// Principal renders a service account id as the principal string the IAM
// API expects. Values already carrying a "Type:" prefix pass through.
func Principal(serviceAccountID string) string {
	if strings.Contains(serviceAccountID, ":") {
		return serviceAccountID
	}
	return "User:" + serviceAccountID
}

// resolveEnvironment returns the effective environment id for a cluster,
// asking the API when the caller did not provide one. Detection failure is
// not fatal: the CRN builder degrades to a wildcard environment.
func (m *Manager) resolveEnvironment(ctx context.Context, clusterID, environmentID string) string {
	if environmentID != "" {
		return environmentID
	}
	if environmentID = m.cfg.EnvironmentID; environmentID != "" {
		return environmentID
	}

	cluster, err := m.client.GetCluster(ctx, clusterID, "")
	if err != nil {
		m.log.WarnObj("environment autodetection failed", "environment_meta", map[string]any{
			"cluster_id": clusterID,
			"error":      err.Error(),
		})
		return ""
	}
	envID := cluster.EnvironmentID()
	if envID == "" {
		m.log.WarnObj("cluster reported no environment", "environment_meta", map[string]any{
			"cluster_id": clusterID,
		})
		return ""
	}
	m.log.InfoObj("environment autodetected", "environment_meta", map[string]any{
		"cluster_id":     clusterID,
		"environment_id": envID,
	})
	return envID
}

// record journals a mutation and publishes the matching event. Failures are
// logged and swallowed: bookkeeping must not undo a successful API call.
func (m *Manager) record(ctx context.Context, action, project, principal string, binding *confluent.RoleBinding, detail string) {
	entry := journal.Entry{
		Action:    action,
		Project:   project,
		Principal: principal,
		Detail:    detail,
	}
	if err := m.store.Append(entry); err != nil {
		m.log.WarnObj("journal append failed", "journal_meta", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}

	evt := notify.NewEvent(action, project, principal)
	evt.Binding = binding
	if detail != "" {
		evt.Details = map[string]string{"detail": detail}
	}
	if _, err := m.fanout.Publish(ctx, evt); err != nil {
		m.log.WarnObj("event fanout failed", "notify_meta", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}
