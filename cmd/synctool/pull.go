package main

import (
	"fmt"

	syncengine "github.com/marcus/syncengine"
	"github.com/spf13/cobra"
)

// printingApplier stands in for a real domain applier: synctool doesn't
// know the host's schema, so it just reports what it would have
// written. Real hosts supply an Applier that writes into their own
// tables via the Tx passed into Apply.
var printingApplier = syncengine.ApplierFunc(func(tx *syncengine.Tx, op syncengine.RemoteOp) error {
	fmt.Printf("apply %s %s/%s (remote_id=%s)\n", op.OpType, op.TableName, op.RowID, op.RemoteID)
	return nil
})

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull and apply remote ops from the configured server",
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
		cursor, err := e.GetRemoteCursor()
		if err != nil {
			return err
		}
		result, err := client.Pull(cursor)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}

		if len(result.Ops) > 0 {
			applied, err := e.ApplyBatch(result.Ops, printingApplier)
			if err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			fmt.Printf("applied %d (skipped %d duplicate, %d in-batch)\n", applied.Applied, applied.SkippedDuplicates, applied.SkippedInBatch)
		}

		if result.NewCursor != nil {
			if err := e.SetRemoteCursor(*result.NewCursor); err != nil {
				return err
			}
		}
		return nil
	},
}
