package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pushLimit int

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push pending local changes to the configured server",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		if cfg.ServerURL == "" {
			return fmt.Errorf("no server URL configured; run 'synctool init' or pass --server")
		}

		pending, err := e.GetPending(pushLimit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("nothing to push")
			return nil
		}

		client, err := newTransportClient(cfg)
		if err != nil {
			return err
		}
		acked, err := client.Push(pending)
		if err != nil {
			return fmt.Errorf("push: %w", err)
		}
		if err := e.MarkAcked(acked); err != nil {
			return err
		}
		fmt.Printf("pushed %d, acked %d\n", len(pending), len(acked))
		return nil
	},
}

func init() {
	pushCmd.Flags().IntVar(&pushLimit, "limit", 100, "maximum number of pending changes to push")
}
