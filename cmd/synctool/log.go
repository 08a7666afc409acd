package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Append a local change to the oplog",
}

var logInsertCmd = &cobra.Command{
	Use:   "insert <table> <row_id> <new_row_json>",
	Short: "Log an INSERT",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		id, err := e.LogInsert(args[0], args[1], json.RawMessage(args[2]), cfg.Origin)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var logUpdateCmd = &cobra.Command{
	Use:   "update <table> <row_id> [new_row_json]",
	Short: "Log an UPDATE",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		var newRow json.RawMessage
		if len(args) == 3 {
			newRow = json.RawMessage(args[2])
		}
		id, err := e.LogUpdate(args[0], args[1], nil, newRow, nil, cfg.Origin)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <table> <row_id>",
	Short: "Log a DELETE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		id, err := e.LogDelete(args[0], args[1], cfg.Origin)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	logCmd.AddCommand(logInsertCmd, logUpdateCmd, logDeleteCmd)
}
