package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"afterglow/internal/app"
)

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View publish history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := app.OpenHistory(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		ops, err := log.List(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No publishes recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if !op.FinishedAt.IsZero() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-9s  +%d -%d =%d  %s\n",
				op.ID,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				op.Uploaded,
				op.Deleted,
				op.Unchanged,
				duration,
			)
			if op.Error != "" {
				fmt.Printf("      %s\n", op.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of publishes to show")
}
