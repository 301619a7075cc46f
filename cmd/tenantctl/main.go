package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/streamhaus/confluent-tenant-manager/internal/app"
	"github.com/streamhaus/confluent-tenant-manager/internal/config"
	"github.com/streamhaus/confluent-tenant-manager/internal/logger"
	"github.com/streamhaus/confluent-tenant-manager/pkg/tenantspec"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	if err := run(cmd, args); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: tenantctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  apply [--file <path>]     Provision every active tenant of the roster")
	fmt.Println("  create --project <name>   Provision one tenant (--cluster, --env, --topic, --group)")
	fmt.Println("  list [--file <path>]      Show the tenant roster")
	fmt.Println("  revoke --project <name>   Revoke a tenant's grants")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CONFLUENT_CLOUD_API_KEY      API key (Basic auth user)")
	fmt.Println("  CONFLUENT_CLOUD_API_SECRET   API secret (Basic auth password)")
	fmt.Println("  CONFLUENT_CLOUD_CLUSTER_ID   Default cluster for tenants without one")
	fmt.Println("  TENANTS_FILE                 Roster path (default ./configs/tenants.yaml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  tenantctl create --project billing --cluster lkc-abc123")
	fmt.Println("  tenantctl apply")
	fmt.Println("  tenantctl revoke --project billing")
	fmt.Println()
}

func run(cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	// Roster inspection is offline and needs no credentials.
	if cmd == "list" {
		return cmdList(cfg, args)
	}

	if err := ensureCredentials(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := app.NewManager(ctx, cfg, logger.Obj{})
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "apply":
		return cmdApply(ctx, cfg, m, args)
	case "create", "provision":
		return cmdCreate(ctx, cfg, m, args)
	case "revoke", "delete":
		return cmdRevoke(ctx, m, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func ensureCredentials(cfg *config.Config) error {
	if cfg.HasCredentials() {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	// Piped stdin carries the key and secret as two lines.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		key, _ := reader.ReadString('\n')
		secret, _ := reader.ReadString('\n')
		cfg.APIKey = strings.TrimSpace(key)
		cfg.APISecret = strings.TrimSpace(secret)
		if !cfg.HasCredentials() {
			return fmt.Errorf("missing credentials: set CONFLUENT_CLOUD_API_KEY and CONFLUENT_CLOUD_API_SECRET (or pipe key and secret lines on stdin)")
		}
		return nil
	}

	fmt.Print("Confluent Cloud API key: ")
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	fmt.Print("Confluent Cloud API secret (no echo): ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read api secret: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(key)
	cfg.APISecret = strings.TrimSpace(string(secret))
	if !cfg.HasCredentials() {
		return fmt.Errorf("missing credentials: set CONFLUENT_CLOUD_API_KEY and CONFLUENT_CLOUD_API_SECRET")
	}
	return nil
}

func rosterPath(cfg *config.Config, args []string) (string, []string) {
	path := cfg.TenantsFile
	rest := args[:0:0]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--file", "-f":
			if i+1 < len(args) {
				path = args[i+1]
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	return path, rest
}

func cmdApply(ctx context.Context, cfg *config.Config, m *app.Manager, args []string) error {
	path, _ := rosterPath(cfg, args)
	if err := tenantspec.LoadTenants(path); err != nil {
		return fmt.Errorf("load tenants: %w", err)
	}

	tenants := tenantspec.Tenants()
	if len(tenants) == 0 {
		return fmt.Errorf("no tenants in %s", path)
	}

	results := m.ApplyTenants(ctx, tenants)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			color.Red("✗ %s: %v\n", r.Project, r.Err)
			continue
		}
		printProvisionResult(r.Project, r.Result)
	}

	fmt.Printf("%d of %d tenants provisioned\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d of %d tenants failed", failed, len(results))
	}
	return nil
}

func cmdCreate(ctx context.Context, cfg *config.Config, m *app.Manager, args []string) error {
	var tenant tenantspec.Tenant
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--project", "-j":
			if i+1 < len(args) {
				tenant.Project = args[i+1]
				i++
			}
		case "--cluster", "-c":
			if i+1 < len(args) {
				tenant.ClusterID = args[i+1]
				i++
			}
		case "--env", "-e":
			if i+1 < len(args) {
				tenant.EnvironmentID = args[i+1]
				i++
			}
		case "--topic", "-t":
			if i+1 < len(args) {
				tenant.Topics = append(tenant.Topics, args[i+1])
				i++
			}
		case "--group", "-g":
			if i+1 < len(args) {
				tenant.ConsumerGroups = append(tenant.ConsumerGroups, args[i+1])
				i++
			}
		}
	}

	if tenant.Project == "" {
		return fmt.Errorf("usage: create --project <name> [--cluster <id>] [--env <id>] [--topic <pat>]... [--group <pat>]...")
	}

	// Bare --project falls back to the roster definition when one exists.
	if tenant.ClusterID == "" && len(tenant.Topics) == 0 && len(tenant.ConsumerGroups) == 0 {
		if err := tenantspec.LoadTenants(cfg.TenantsFile); err == nil {
			if t, ok := tenantspec.TenantByProject(tenant.Project); ok {
				tenant = t
			}
		}
	}

	res, err := m.ProvisionTenant(ctx, tenant)
	if err != nil {
		return err
	}

	printProvisionResult(tenant.Project, res)
	if !res.Report.Clean() {
		return fmt.Errorf("%d of %d grants failed", len(res.Report.Failed), res.Report.Total())
	}
	return nil
}

func cmdList(cfg *config.Config, args []string) error {
	path, _ := rosterPath(cfg, args)
	if err := tenantspec.LoadTenants(path); err != nil {
		return fmt.Errorf("load tenants: %w", err)
	}

	tenants := tenantspec.Tenants()

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tenant Roster")
	cyan.Println("  -------------")

	if len(tenants) == 0 {
		fmt.Println("  (no tenants)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  PROJECT\tCLUSTER\tENVIRONMENT\tTOPICS\tGROUPS\tSTATUS")
	fmt.Fprintln(w, "  -------\t-------\t-----------\t------\t------\t------")
	for _, t := range tenants {
		env := t.EnvironmentID
		if env == "" {
			env = "(auto)"
		}
		status := "active"
		if t.Disabled {
			status = "disabled"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			t.Project, t.ClusterID, env,
			strings.Join(t.Topics, ","), strings.Join(t.ConsumerGroups, ","), status)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdRevoke(ctx context.Context, m *app.Manager, args []string) error {
	var project string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--project", "-j":
			if i+1 < len(args) {
				project = args[i+1]
				i++
			}
		}
	}
	if project == "" {
		return fmt.Errorf("usage: revoke --project <name>")
	}

	sa, err := m.Client().FindServiceAccountByName(ctx, project+"-service-account")
	if err != nil {
		return err
	}

	report, err := m.RevokeTenantPermissions(ctx, sa.ID, project)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Revoked %d bindings for tenant %s (%s)\n", report.Deleted, project, sa.ID)
	color.Yellow("Note: the service account and its API keys require manual deletion in the Confluent Cloud console\n")
	return nil
}

func printProvisionResult(project string, res *app.ProvisionResult) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	account := "created"
	if res.ReusedAccount {
		account = "reused"
	}
	env := res.EnvironmentID
	if env == "" {
		env = "* (not detected)"
	}

	fmt.Println()
	green.Printf("✓ Tenant %s provisioned\n", project)
	fmt.Printf("  Service account: %s (%s)\n", res.ServiceAccount.ID, account)
	fmt.Printf("  Environment:     %s\n", env)
	fmt.Printf("  Grants:          %d created, %d skipped, %d failed\n",
		len(res.Report.Created), len(res.Report.Skipped), len(res.Report.Failed))
	fmt.Println()
	cyan.Println("  API key (the secret is shown only once, store it now):")
	fmt.Printf("    Key:    %s\n", res.APIKey.ID)
	fmt.Printf("    Secret: %s\n", res.APIKey.Spec.Secret)
	fmt.Println()
}
