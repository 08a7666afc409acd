package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var pendingLimit int

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending local changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		changes, err := e.GetPending(pendingLimit)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	pendingCmd.Flags().IntVar(&pendingLimit, "limit", 100, "maximum number of pending changes to list")
}
