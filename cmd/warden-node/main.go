package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"warden.dev/warden/crypto"
	"warden.dev/warden/engine"
	"warden.dev/warden/node"
	"warden.dev/warden/node/store"
)

type multiStringFlag []string

func (m *multiStringFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiStringFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func main() {
	defaults := node.DefaultConfig()
	var targets multiStringFlag

	configPath := flag.String("config", "", "JSON config file; flags override its values")
	targetCSV := flag.String("trusted-targets", "", "trusted call targets, comma-separated hex identities")
	flag.Var(&targets, "trusted-target", "single trusted call target hex identity (repeatable)")
	dataDir := flag.String("datadir", defaults.DataDir, "node data directory")
	bindAddr := flag.String("bind", defaults.BindAddr, "bind address host:port")
	logLevel := flag.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	controller := flag.String("controller", "", "controller identity hex (required)")
	dryRun := flag.Bool("dry-run", false, "print effective config and exit")
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		loaded, err := node.LoadConfig(*configPath)
		if err != nil {
			fatalf(2, "config load failed: %v", err)
		}
		cfg = loaded
	}
	applyFlagOverrides(&cfg, dataDir, bindAddr, logLevel, controller)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.TrustedTargets = node.NormalizeTargets(append(append([]string{*targetCSV}, targets...), cfg.TrustedTargets...)...)
	if err := node.ValidateConfig(cfg); err != nil {
		fatalf(2, "invalid config: %v", err)
	}

	if err := printConfig(cfg); err != nil {
		fatalf(1, "config encode failed: %v", err)
	}
	if *dryRun {
		return
	}

	ctrl, err := engine.AddressFromHex(cfg.Controller)
	if err != nil {
		fatalf(2, "invalid controller: %v", err)
	}
	registry, err := cfg.TargetRegistry()
	if err != nil {
		fatalf(2, "trusted targets: %v", err)
	}
	db, err := store.Open(cfg.DataDir, ctrl)
	if err != nil {
		fatalf(2, "store open failed: %v", err)
	}
	defer db.Close()

	// Delegation is an execution-environment primitive this daemon does not
	// provide. With a nil invoker every guarded operation that reaches its
	// external call fails closed with OP_ERR_CALL_FAILED.
	eng := engine.New(ctrl, registry, nil)
	srv := node.NewServer(db, eng, crypto.StdProvider{})

	httpSrv := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	_, _ = fmt.Fprintf(os.Stdout, "warden-node listening on %s\n", cfg.BindAddr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatalf(1, "serve failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		fatalf(1, "shutdown failed: %v", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "warden-node stopped")
}

// applyFlagOverrides copies only flags the user actually set over the
// config-file values, so a config file and partial flags compose.
func applyFlagOverrides(cfg *node.Config, dataDir, bindAddr, logLevel, controller *string) {
	set := make(map[string]struct{})
	flag.Visit(func(f *flag.Flag) { set[f.Name] = struct{}{} })
	if _, ok := set["datadir"]; ok || cfg.DataDir == "" {
		cfg.DataDir = *dataDir
	}
	if _, ok := set["bind"]; ok || cfg.BindAddr == "" {
		cfg.BindAddr = *bindAddr
	}
	if _, ok := set["log-level"]; ok || cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}
	if _, ok := set["controller"]; ok || cfg.Controller == "" {
		cfg.Controller = *controller
	}
}

func printConfig(cfg node.Config) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func fatalf(code int, format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
