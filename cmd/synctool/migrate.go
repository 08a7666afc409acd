package main

import (
	"fmt"

	syncengine "github.com/marcus/syncengine"
	"github.com/spf13/cobra"
)

var migrateTarget int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		target := migrateTarget
		if target == 0 {
			target = syncengine.LatestSchemaVersion()
		}
		if err := e.RunMigrations(target); err != nil {
			return err
		}
		v, err := e.GetSchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("schema now at version %d\n", v)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateTarget, "target", 0, "target schema version (default: latest known to this binary)")
}
