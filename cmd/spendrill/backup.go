package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spendrill/internal/backup"
)

var exportFlags struct {
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as a backup file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		env, err := backup.Export(ctx, a.store)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return err
		}

		if exportFlags.output == "" {
			fmt.Println(string(out))
			return nil
		}
		if err := os.WriteFile(exportFlags.output, out, 0644); err != nil {
			return fmt.Errorf("write backup file: %w", err)
		}
		fmt.Printf("exported %d transactions to %s\n", len(env.Data.Transactions), exportFlags.output)
		return nil
	},
}

var importFlags struct {
	replace bool
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore data from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup file: %w", err)
		}

		if err := a.manager.ImportBackup(ctx, raw, importFlags.replace); err != nil {
			return err
		}

		snap := a.manager.Snapshot()
		fmt.Printf("imported: %d transactions, %d categories\n", len(snap.Transactions), len(snap.Categories))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "write to file instead of stdout")
	importCmd.Flags().BoolVar(&importFlags.replace, "replace", false, "wipe existing data before restoring")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
