package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendrill/internal/core"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the app lock PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set <pin>",
	Short: "Store the SHA-256 hash of a PIN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.manager.SetPinHash(ctx, core.HashPin(args[0])); err != nil {
			return err
		}
		fmt.Println("pin updated")
		return nil
	},
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
	rootCmd.AddCommand(pinCmd)
}
