package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendrill/internal/core"
)

var addFlags struct {
	date   string
	amount float64
	note   string
	cat    string
	sub    string
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		date := addFlags.date
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		tx, err := a.manager.AddTransaction(ctx, core.Transaction{
			Date:   date,
			Amount: addFlags.amount,
			Note:   addFlags.note,
			CatID:  addFlags.cat,
			SubID:  addFlags.sub,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(tx, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addFlags.date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	addCmd.Flags().Float64Var(&addFlags.amount, "amount", 0, "amount spent (required)")
	addCmd.Flags().StringVar(&addFlags.note, "note", "", "free-form note")
	addCmd.Flags().StringVar(&addFlags.cat, "cat", "", "category id (required)")
	addCmd.Flags().StringVar(&addFlags.sub, "sub", "", "subcategory id")
	addCmd.MarkFlagRequired("amount")
	addCmd.MarkFlagRequired("cat")
	rootCmd.AddCommand(addCmd)
}
