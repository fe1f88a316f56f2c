package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendrill/internal/bus"
	"spendrill/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute spending statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.worker.Start(ctx); err != nil {
			return err
		}

		results := make(chan stats.Payload, 1)
		a.bus.Once(bus.TopicStatsReady, func(payload any) {
			if p, ok := payload.(stats.Payload); ok {
				results <- p
			}
		})

		if _, err := a.manager.LoadSnapshot(ctx); err != nil {
			return err
		}
		a.manager.ComputeStats()

		select {
		case payload := <-results:
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		case <-time.After(10 * time.Second):
			return fmt.Errorf("timed out waiting for stats")
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
