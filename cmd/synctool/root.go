// Command synctool is a cobra-based CLI host harness for the sync
// engine: it plays the role of "the host" for manual testing and
// demos, driving syncengine.Engine the way a real mobile or desktop
// app would.
package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	syncengine "github.com/marcus/syncengine"
	"github.com/marcus/syncengine/internal/transport"
	"github.com/spf13/cobra"
)

var (
	dbPathFlag     string
	originFlag     string
	serverURLFlag  string
	passphraseFlag string
)

var rootCmd = &cobra.Command{
	Use:   "synctool",
	Short: "Host harness for the offline-first sync engine",
	Long: `synctool drives the sync engine's public API from the command line:
logging local changes, inspecting the pending queue, and running push/pull
cycles against any server that implements the push/pull endpoints described
in internal/transport.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "path to the SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&originFlag, "origin", "", "this device's HLC origin id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverURLFlag, "server", "", "sync server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&passphraseFlag, "passphrase", os.Getenv("SYNCTOOL_PASSPHRASE"), "end-to-end encryption passphrase (enables sealing if the config has a seal_salt)")

	rootCmd.AddCommand(initCmd, logCmd, pendingCmd, pushCmd, pullCmd, syncCmd, migrateCmd, monitorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolvedConfig merges the on-disk config with any --db/--origin/--server
// overrides, command-line flags winning.
func resolvedConfig() (*toolConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}
	if originFlag != "" {
		cfg.Origin = originFlag
	}
	if serverURLFlag != "" {
		cfg.ServerURL = serverURLFlag
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("no database path configured; run 'synctool init' first or pass --db")
	}
	if cfg.Origin == "" {
		return nil, fmt.Errorf("no origin id configured; run 'synctool init' first or pass --origin")
	}
	return cfg, nil
}

// openEngine resolves the effective config and binds an Engine to it,
// logging to stderr at warn level and above.
func openEngine() (*syncengine.Engine, *toolConfig, error) {
	cfg, err := resolvedConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	e, err := syncengine.Open(cfg.DBPath, syncengine.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open engine: %w", err)
	}
	return e, cfg, nil
}

// newTransportClient builds the HTTP client push/pull/sync share, sealing
// payloads end-to-end when both a config seal_salt and --passphrase are
// present.
func newTransportClient(cfg *toolConfig) (*transport.HTTPClient, error) {
	if cfg.SealSalt == "" || passphraseFlag == "" {
		return transport.NewHTTPClient(cfg.ServerURL, cfg.Secret), nil
	}
	salt, err := base64.StdEncoding.DecodeString(cfg.SealSalt)
	if err != nil {
		return nil, fmt.Errorf("decode seal_salt: %w", err)
	}
	return transport.NewSealedHTTPClient(cfg.ServerURL, cfg.Secret, passphraseFlag, salt)
}
