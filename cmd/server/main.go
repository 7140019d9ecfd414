package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	iofs "io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/HyphaGroup/adgate/internal/audit"
	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/cleanup"
	"github.com/HyphaGroup/adgate/internal/config"
	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/mcp"
	"github.com/HyphaGroup/adgate/internal/metrics"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/tokens"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Check for subcommands before parsing flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			cmdInit(os.Args[2:])
			return
		case "token":
			cmdToken(os.Args[2:])
			return
		case "--version", "-v":
			fmt.Printf("adgate %s\n", Version)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	// Default: run server
	runServer()
}

func printUsage() {
	fmt.Printf(`adgate %s - Multi-tenant MCP gateway for the ads platform

Usage: adgate [command] [options]

Commands:
  (default)    Start the gateway
  init         Write a default adgate.jsonc
  token        Manage gateway access tokens

Server Options:
  --dir <path>       Directory containing adgate.jsonc

Config Precedence (for server):
  1. --dir flag
  2. ADGATE_HOME env var
  3. ./.adgate/adgate.jsonc
  4. ~/.adgate/adgate.jsonc

Examples:
  adgate                        Start the gateway (auto-detect config)
  adgate --dir /etc/adgate      Start with a specific config directory
  adgate init                   Set up ~/.adgate
  adgate init --dir .adgate     Set up in the current directory
  adgate token create --name ci --scope tenant:acme
`, Version)
}

func runServer() {
	dirFlag := flag.String("dir", "", "Directory containing adgate.jsonc")
	flag.Parse()

	cfg, err := config.Load(*dirFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v (run 'adgate init' first)", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := logger.Init(cfg.Logging.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Close() }()
	if err := logger.InitSlog(cfg.Logging.Dir, cfg.Logging.JSON); err != nil {
		log.Fatalf("Failed to initialize structured logger: %v", err)
	}
	defer func() { _ = logger.CloseSlog() }()

	logger.Printf("🛰️  adgate %s", Version)
	logger.Printf("📄 Config: %s", filepath.Join(cfg.ConfigDir, config.ConfigFileName))

	store := session.NewStore(
		session.WithTimeout(cfg.Sessions.Timeout.Std()),
		session.WithExpireHook(func(tenantID string) {
			audit.LogTenant(audit.OpSessionExpire, tenantID, "", nil)
			metrics.RecordSessionExpired()
		}),
	)
	if cfg.Sessions.Timeout > 0 {
		logger.Printf("⏱️  Session idle timeout: %s", cfg.Sessions.Timeout.Std())
	} else {
		logger.Println("⏱️  Sessions do not expire")
	}

	upstream := graph.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIVersion, cfg.Upstream.RequestTimeout.Std())
	logger.Printf("🌐 Upstream: %s/%s", cfg.Upstream.BaseURL, cfg.Upstream.APIVersion)

	fallback := tokens.NewResolver(upstream, store, cfg.Upstream.ResourceTokenCacheSize, cfg.Upstream.ResourceTokenTTL.Std())

	serverCfg := mcp.ServerConfig{
		Config:   cfg,
		Sessions: store,
		Upstream: upstream,
		Fallback: fallback,
	}

	if cfg.Auth.RequireToken {
		authStore, err := auth.NewStore(cfg.ConfigDir)
		if err != nil {
			logger.Fatalf("Failed to initialize auth store: %v", err)
		}
		defer func() { _ = authStore.Close() }()
		serverCfg.AuthStore = authStore
		logger.Printf("🔐 Gateway tokens required (%s/auth.db)", cfg.ConfigDir)
	}

	cleanupCfg := cleanup.DefaultConfig(store)
	if cfg.Sessions.SweepSchedule != "" {
		cleanupCfg.Schedule = cfg.Sessions.SweepSchedule
	}
	if cfg.RateLimit.Enabled {
		limiter := auth.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		serverCfg.Limiter = limiter
		cleanupCfg.Limiter = limiter
		logger.Printf("🚦 Rate limit: %.1f req/s, burst %d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	mcp.Version = Version
	server := mcp.NewServer(serverCfg)

	cleaner := cleanup.New(cleanupCfg)
	if err := cleaner.Start(); err != nil {
		logger.Fatalf("Failed to start cleanup: %v", err)
	}
	defer cleaner.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, cfg.Server.Address, shutdownTimeout); err != nil {
		logger.Error("Server error: %v", err)
		return
	}
	logger.Println("✅ Shutdown complete")
}

func cmdInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Directory to initialize (default: ~/.adgate)")
	force := fs.Bool("force", false, "Overwrite an existing adgate.jsonc")
	_ = fs.Parse(args)

	dir := *dirFlag
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".adgate")
	}

	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	} else if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error checking %s: %v\n", path, err)
		os.Exit(1)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, []byte(config.DefaultFile), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("✅ Wrote %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set server.public_url to the address tenants will reach")
	fmt.Println("  2. Optionally set auth.require_token and create a token:")
	fmt.Println("       adgate token create --name admin --scope admin")
	fmt.Println("  3. Start the gateway: adgate")
}

func cmdToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Directory containing adgate.jsonc")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		printTokenUsage()
		os.Exit(1)
	}
	cmd := fs.Arg(0)
	cmdArgs := fs.Args()[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printTokenUsage()
		return
	}

	configPath, err := config.FindConfigPath(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// tokens live next to the config file, where the server opens them
	store, err := auth.NewStore(filepath.Dir(configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing auth store: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "create":
		err = tokenCreate(store, cmdArgs)
	case "list":
		err = tokenList(store)
	case "revoke":
		err = tokenRevoke(store, cmdArgs)
	case "info":
		err = tokenInfo(store, cmdArgs)
	default:
		err = fmt.Errorf("unknown token command: %s", cmd)
	}
	_ = store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printTokenUsage() {
	fmt.Println(`Token Management

Usage: adgate token [--dir <path>] <command> [options]

Commands:
  create    Create a new gateway token
  list      List all tokens
  revoke    Revoke a token
  info      Get token details
  help      Show this help

Scope Formats:
  admin              Full access to every tenant
  admin:ro           Read-only access to every tenant
  tenant:<id>        Full access to one tenant
  tenant:<id>:ro     Read-only access to one tenant

Examples:
  adgate token create --name "Local Dev" --scope admin
  adgate token create --name "Acme bot" --scope tenant:acme --expires 720h
  adgate token list
  adgate token revoke tok_xxxx
  adgate token info tok_xxxx`)
}

func tokenCreate(store *auth.Store, args []string) error {
	fs := flag.NewFlagSet("token create", flag.ExitOnError)
	name := fs.String("name", "", "Human-readable token name (required)")
	scope := fs.String("scope", "", "Token scope: admin, admin:ro, tenant:<id>, or tenant:<id>:ro (required)")
	expires := fs.Duration("expires", 0, "Lifetime of the token, e.g. 720h (default: never)")
	_ = fs.Parse(args)

	if *name == "" || *scope == "" {
		fs.PrintDefaults()
		return errors.New("--name and --scope are required")
	}
	if err := auth.ValidateScope(*scope); err != nil {
		return err
	}

	var expiresAt *time.Time
	if *expires > 0 {
		t := time.Now().UTC().Add(*expires)
		expiresAt = &t
	}

	token, secret, err := store.CreateToken(*name, *scope, expiresAt)
	audit.Log(&audit.Event{Operation: audit.OpTokenCreate, TokenScope: *scope, Success: err == nil, Error: errString(err), TokenID: tokenID(token)})
	if err != nil {
		return fmt.Errorf("creating token: %w", err)
	}

	fmt.Println("Token created successfully!")
	fmt.Println()
	fmt.Printf("Token:    %s\n", secret)
	fmt.Printf("ID:       %s\n", token.ID)
	fmt.Printf("Name:     %s\n", token.Name)
	fmt.Printf("Scope:    %s\n", token.Scope)
	if token.ExpiresAt != nil {
		fmt.Printf("Expires:  %s\n", token.ExpiresAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Println("IMPORTANT: Save this token now. It cannot be retrieved later.")
	return nil
}

func tokenList(store *auth.Store) error {
	list, err := store.ListTokens()
	if err != nil {
		return fmt.Errorf("listing tokens: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No tokens found.")
		fmt.Println()
		fmt.Println("Create one with: adgate token create --name \"My Token\" --scope admin")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSCOPE\tCREATED\tLAST USED\tEXPIRES")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-------\t---------\t-------")
	for _, t := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Name,
			t.Scope,
			t.CreatedAt.Format("2006-01-02 15:04"),
			formatOptional(t.LastUsedAt),
			formatOptional(t.ExpiresAt),
		)
	}
	return w.Flush()
}

func tokenRevoke(store *auth.Store, args []string) error {
	if len(args) < 1 {
		return errors.New("token ID required (usage: adgate token revoke <token_id>)")
	}

	id := args[0]
	err := store.RevokeToken(id)
	audit.Log(&audit.Event{Operation: audit.OpTokenRevoke, TokenID: id, Success: err == nil, Error: errString(err)})
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	fmt.Printf("Token %s revoked successfully.\n", id)
	return nil
}

func tokenInfo(store *auth.Store, args []string) error {
	if len(args) < 1 {
		return errors.New("token ID required (usage: adgate token info <token_id>)")
	}

	token, err := store.GetToken(args[0])
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	fmt.Printf("Token ID:    %s\n", token.ID)
	fmt.Printf("Name:        %s\n", token.Name)
	fmt.Printf("Scope:       %s\n", token.Scope)
	fmt.Printf("Created:     %s\n", token.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Last Used:   %s\n", formatOptional(token.LastUsedAt))
	fmt.Printf("Expires:     %s\n", formatOptional(token.ExpiresAt))
	return nil
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func tokenID(t *auth.Token) string {
	if t == nil {
		return ""
	}
	return t.ID
}
