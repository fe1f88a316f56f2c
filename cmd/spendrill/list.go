package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendrill/internal/core"
)

var listFlags struct {
	month  string
	search string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var txs []core.Transaction
		switch {
		case listFlags.month != "":
			txs, err = a.store.ListTransactionsByMonth(ctx, listFlags.month)
		case listFlags.search != "":
			txs, err = a.store.SearchTransactions(ctx, listFlags.search)
		default:
			txs, err = a.store.ListTransactions(ctx)
		}
		if err != nil {
			return err
		}

		if len(txs) == 0 {
			fmt.Println("no transactions")
			return nil
		}

		var total float64
		for _, tx := range txs {
			cat := tx.CatID
			if tx.SubID != "" {
				cat += "/" + tx.SubID
			}
			fmt.Printf("%-12s %10.2f  %-40s %s\n", tx.Date, tx.Amount, cat, tx.Note)
			total += tx.Amount
		}
		fmt.Printf("%-12s %10.2f  (%d transactions)\n", "total", total, len(txs))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFlags.month, "month", "", "only transactions in month (YYYY-MM)")
	listCmd.Flags().StringVar(&listFlags.search, "search", "", "substring match over note, amount and date")
	rootCmd.AddCommand(listCmd)
}
