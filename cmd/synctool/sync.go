package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full push+pull sync cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		if cfg.ServerURL == "" {
			return fmt.Errorf("no server URL configured; run 'synctool init' or pass --server")
		}

		client, err := newTransportClient(cfg)
		if err != nil {
			return err
		}
		result, err := e.SyncCycle(client.Push, client.Pull, syncLimit, printingApplier)
		if err != nil {
			return fmt.Errorf("sync cycle: %w", err)
		}

		fmt.Printf("pushed=%d acked=%d pulled=%d applied=%d cursor_moved=%v\n",
			result.Pushed, len(result.Acked), result.Pulled, result.Applied.Applied, result.CursorMoved)
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 100, "maximum number of pending changes to push per cycle")
}
