package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	syncengine "github.com/marcus/syncengine"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var initSeal bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure synctool and initialize a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadConfig()
		if dbPathFlag != "" {
			cfg.DBPath = dbPathFlag
		}
		if originFlag != "" {
			cfg.Origin = originFlag
		}
		if serverURLFlag != "" {
			cfg.ServerURL = serverURLFlag
		}
		if initSeal && cfg.SealSalt == "" {
			salt := make([]byte, 32)
			if _, err := io.ReadFull(rand.Reader, salt); err != nil {
				return fmt.Errorf("generate seal salt: %w", err)
			}
			cfg.SealSalt = base64.StdEncoding.EncodeToString(salt)
			fmt.Println("Generated a seal salt. Share it (e.g. via the config file) with every peer in this project — they need the same salt and passphrase to decrypt each other's rows.")
		}

		needsPrompt := cfg.DBPath == "" || cfg.Origin == ""
		if needsPrompt && term.IsTerminal(int(os.Stdout.Fd())) {
			if err := promptForConfig(cfg); err != nil {
				return fmt.Errorf("interactive setup: %w", err)
			}
		}

		if cfg.DBPath == "" {
			return fmt.Errorf("--db is required when stdout is not a terminal")
		}
		if cfg.Origin == "" {
			return fmt.Errorf("--origin is required when stdout is not a terminal")
		}

		e, err := syncengine.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize database at %s: %w", cfg.DBPath, err)
		}
		defer e.Close()

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Printf("Initialized sync database at %s (origin=%s)\n", cfg.DBPath, cfg.Origin)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initSeal, "seal", false, "enable end-to-end payload encryption (generates a seal_salt in the config)")
}

func promptForConfig(cfg *toolConfig) error {
	if cfg.DBPath == "" {
		cfg.DBPath = "./sync.db"
	}
	if cfg.Origin == "" {
		// Suggest a random device id; the user can overwrite it in the form.
		cfg.Origin = uuid.New().String()
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database path").
				Value(&cfg.DBPath),
			huh.NewInput().
				Title("Device origin id").
				Description("Used to tag every HLC token and oplog entry this device writes").
				Value(&cfg.Origin),
			huh.NewInput().
				Title("Sync server URL (optional)").
				Value(&cfg.ServerURL),
		),
	)
	return form.Run()
}
