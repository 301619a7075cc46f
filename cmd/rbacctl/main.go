package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/streamhaus/confluent-tenant-manager/internal/app"
	"github.com/streamhaus/confluent-tenant-manager/internal/config"
	"github.com/streamhaus/confluent-tenant-manager/internal/logger"
	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
	"github.com/streamhaus/confluent-tenant-manager/pkg/crn"
	"github.com/streamhaus/confluent-tenant-manager/pkg/roles"
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

	fmt.Println("Usage: rbacctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  bindings                     List role bindings")
	fmt.Println("  bindings list                List role bindings (--principal, --role)")
	fmt.Println("  bindings create              Create a binding (--principal, --role, --crn)")
	fmt.Println("  bindings get <id>            Fetch one binding by id")
	fmt.Println("  bindings delete <id>         Delete a binding by id")
	fmt.Println("  grants create                Ensure the tenant grant set (--account, --project)")
	fmt.Println("  grants list --account <id>   List every binding a service account holds")
	fmt.Println("  grants revoke                Revoke a tenant's grants (--account, --project)")
	fmt.Println("  roles                        Show the built-in role catalog")
	fmt.Println("  crn                          Show CRN templates (--org, --env, --cluster)")
	fmt.Println("  journal [--limit <n>]        Show recent local mutations")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CONFLUENT_CLOUD_API_KEY          API key (Basic auth user)")
	fmt.Println("  CONFLUENT_CLOUD_API_SECRET       API secret (Basic auth password)")
	fmt.Println("  CONFLUENT_CLOUD_ENVIRONMENT_ID   Default environment for CRN templates")
	fmt.Println("  CONFLUENT_CLOUD_CLUSTER_ID       Default cluster for CRN templates")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  rbacctl bindings --principal User:sa-abc123")
	fmt.Println("  rbacctl bindings create --principal User:sa-abc123 --role DeveloperRead \\")
	fmt.Println("      --crn 'crn://confluent.cloud/organization=*/environment=env-x/cloud-cluster=lkc-y/kafka=lkc-y/topic=billing-*'")
	fmt.Println("  rbacctl grants create --account sa-abc123 --project billing")
	fmt.Println("  rbacctl roles")
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

	// Offline commands never touch the API and need no credentials.
	switch cmd {
	case "roles":
		return cmdRoles()
	case "crn":
		return cmdCRN(cfg, args)
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
	case "bindings":
		return cmdBindings(ctx, m, args)
	case "grants":
		return cmdGrants(ctx, m, args)
	case "journal":
		return cmdJournal(m, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// ensureCredentials prompts for the credential pair when the environment does
// not carry it and stdin is a terminal.
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

// cmdBindings handles the raw role-binding subcommands.
func cmdBindings(ctx context.Context, m *app.Manager, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdBindingsList(ctx, m, args)
	case "create", "add":
		return cmdBindingsCreate(ctx, m, args)
	case "get", "show":
		return cmdBindingsGet(ctx, m, args)
	case "delete", "rm", "remove":
		return cmdBindingsDelete(ctx, m, args)
	default:
		return fmt.Errorf("unknown bindings subcommand: %s (use list, create, get, delete)", subcmd)
	}
}

func cmdBindingsList(ctx context.Context, m *app.Manager, args []string) error {
	var principal, role string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--principal", "-p":
			if i+1 < len(args) {
				principal = args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				role = args[i+1]
				i++
			}
		}
	}

	bindings, err := m.Client().ListRoleBindings(ctx, confluent.RoleBindingFilter{
		Principal: principal,
		RoleName:  role,
	})
	if err != nil {
		return err
	}

	printBindings("Role Bindings", bindings)
	return nil
}

func cmdBindingsCreate(ctx context.Context, m *app.Manager, args []string) error {
	var principal, role, crnPattern string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--principal", "-p":
			if i+1 < len(args) {
				principal = args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				role = args[i+1]
				i++
			}
		case "--crn", "-c":
			if i+1 < len(args) {
				crnPattern = args[i+1]
				i++
			}
		}
	}

	if principal == "" || role == "" || crnPattern == "" {
		return fmt.Errorf("usage: bindings create --principal <p> --role <name> --crn <pattern>")
	}
	if !roles.IsKnown(role) {
		color.Yellow("Note: %s is not in the built-in role catalog; the API has the final say\n", role)
	}

	binding, err := m.Client().CreateRoleBinding(ctx, principal, role, crnPattern)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created binding: %s\n", binding.ID)
	fmt.Printf("  Principal: %s\n", binding.Principal)
	fmt.Printf("  Role:      %s\n", binding.RoleName)
	fmt.Printf("  CRN:       %s\n", binding.CRNPattern)
	return nil
}

func cmdBindingsGet(ctx context.Context, m *app.Manager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: bindings get <binding-id>")
	}

	binding, err := m.Client().GetRoleBinding(ctx, args[0])
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Role Binding")
	cyan.Println("  ------------")
	fmt.Printf("  ID:        %s\n", binding.ID)
	fmt.Printf("  Principal: %s\n", binding.Principal)
	fmt.Printf("  Role:      %s\n", binding.RoleName)
	fmt.Printf("  CRN:       %s\n", binding.CRNPattern)
	fmt.Println()
	return nil
}

func cmdBindingsDelete(ctx context.Context, m *app.Manager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: bindings delete <binding-id>")
	}

	if err := m.Client().DeleteRoleBinding(ctx, args[0]); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Deleted binding: %s\n", args[0])
	return nil
}

// cmdGrants handles the tenant-level grant subcommands.
func cmdGrants(ctx context.Context, m *app.Manager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: grants <create|list|revoke> [args]")
	}
	subcmd := args[0]
	args = args[1:]

	switch subcmd {
	case "create", "ensure":
		return cmdGrantsCreate(ctx, m, args)
	case "list", "ls":
		return cmdGrantsList(ctx, m, args)
	case "revoke", "delete", "rm", "remove":
		return cmdGrantsRevoke(ctx, m, args)
	default:
		return fmt.Errorf("unknown grants subcommand: %s (use create, list, revoke)", subcmd)
	}
}

func cmdGrantsCreate(ctx context.Context, m *app.Manager, args []string) error {
	var account, project, cluster, env string
	var topics, groups []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--account", "-a":
			if i+1 < len(args) {
				account = args[i+1]
				i++
			}
		case "--project", "-j":
			if i+1 < len(args) {
				project = args[i+1]
				i++
			}
		case "--cluster", "-c":
			if i+1 < len(args) {
				cluster = args[i+1]
				i++
			}
		case "--env", "-e":
			if i+1 < len(args) {
				env = args[i+1]
				i++
			}
		case "--topic", "-t":
			if i+1 < len(args) {
				topics = append(topics, args[i+1])
				i++
			}
		case "--group", "-g":
			if i+1 < len(args) {
				groups = append(groups, args[i+1])
				i++
			}
		}
	}

	if account == "" || project == "" {
		return fmt.Errorf("usage: grants create --account <sa-id> --project <name> [--cluster <id>] [--env <id>] [--topic <pat>]... [--group <pat>]...")
	}

	report, err := m.GrantTenantPermissions(ctx, account, project, cluster, env, topics, groups)
	if err != nil {
		return err
	}

	printGrantReport(report)
	if !report.Clean() {
		return fmt.Errorf("%d of %d grants failed", len(report.Failed), report.Total())
	}
	return nil
}

func cmdGrantsList(ctx context.Context, m *app.Manager, args []string) error {
	var account string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--account", "-a":
			if i+1 < len(args) {
				account = args[i+1]
				i++
			}
		}
	}
	if account == "" {
		return fmt.Errorf("usage: grants list --account <sa-id>")
	}

	bindings, err := m.ListTenantPermissions(ctx, account)
	if err != nil {
		return err
	}

	printBindings(fmt.Sprintf("Bindings for %s", app.Principal(account)), bindings)
	return nil
}

func cmdGrantsRevoke(ctx context.Context, m *app.Manager, args []string) error {
	var account, project string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--account", "-a":
			if i+1 < len(args) {
				account = args[i+1]
				i++
			}
		case "--project", "-j":
			if i+1 < len(args) {
				project = args[i+1]
				i++
			}
		}
	}
	if account == "" || project == "" {
		return fmt.Errorf("usage: grants revoke --account <sa-id> --project <name>")
	}

	report, err := m.RevokeTenantPermissions(ctx, account, project)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Revoked %d bindings for project %s\n", report.Deleted, project)
	for _, id := range report.Bindings {
		fmt.Printf("  deleted %s\n", id)
	}
	return nil
}

func cmdRoles() error {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Available Roles")
	cyan.Println("  ---------------")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ROLE\tDESCRIPTION")
	fmt.Fprintln(w, "  ----\t-----------")
	for _, name := range roles.Names() {
		fmt.Fprintf(w, "  %s\t%s\n", name, roles.Describe(name))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdCRN(cfg *config.Config, args []string) error {
	org := cfg.OrganizationID
	env := cfg.EnvironmentID
	cluster := cfg.ClusterID
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--org", "-o":
			if i+1 < len(args) {
				org = args[i+1]
				i++
			}
		case "--env", "-e":
			if i+1 < len(args) {
				env = args[i+1]
				i++
			}
		case "--cluster", "-c":
			if i+1 < len(args) {
				cluster = args[i+1]
				i++
			}
		}
	}

	patterns := crn.Patterns(org, env, cluster)

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  CRN Pattern Templates")
	cyan.Println("  ---------------------")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SCOPE\tPATTERN")
	fmt.Fprintln(w, "  -----\t-------")
	for _, scope := range crn.ScopeNames() {
		fmt.Fprintf(w, "  %s\t%s\n", scope, patterns[scope])
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdJournal(m *app.Manager, args []string) error {
	limit := 20
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit", "-n":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err != nil {
					return fmt.Errorf("invalid limit: %w", err)
				}
				limit = n
				i++
			}
		}
	}

	entries, err := m.RecentJournal(limit)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Journal")
	cyan.Println("  -------")

	if len(entries) == 0 {
		fmt.Println("  (no entries)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TIME\tACTION\tPROJECT\tPRINCIPAL\tDETAIL")
	fmt.Fprintln(w, "  ----\t------\t-------\t---------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			e.At.Format("Jan 02 15:04:05"), e.Action, e.Project, e.Principal, truncate(e.Detail, 48))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func printBindings(title string, bindings []confluent.RoleBinding) {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  " + title)
	cyan.Println("  " + strings.Repeat("-", len(title)))

	if len(bindings) == 0 {
		fmt.Println("  (no bindings)")
		fmt.Println()
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tPRINCIPAL\tROLE\tCRN")
	fmt.Fprintln(w, "  --\t---------\t----\t---")
	for _, b := range bindings {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			b.ID, truncate(b.Principal, 28), b.RoleName, truncate(b.CRNPattern, 72))
	}
	w.Flush()
	fmt.Println()
}

func printGrantReport(report *app.GrantReport) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for _, o := range report.Created {
		green.Printf("✓ %s on %s=%s", o.Role, o.Scope, o.Pattern)
		fmt.Printf("  (%s)\n", o.BindingID)
	}
	for _, o := range report.Skipped {
		yellow.Printf("- %s on %s=%s", o.Role, o.Scope, o.Pattern)
		fmt.Printf("  %s\n", o.Reason)
	}
	for _, o := range report.Failed {
		color.Red("✗ %s on %s=%s: %s\n", o.Role, o.Scope, o.Pattern, o.Reason)
	}
	fmt.Printf("%d created, %d skipped, %d failed\n",
		len(report.Created), len(report.Skipped), len(report.Failed))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
