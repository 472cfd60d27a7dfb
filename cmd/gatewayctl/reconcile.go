package main

import (
	"fmt"

	"seller-gateway/internal/adapter/queue"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

func reconcileCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Queue an immediate sweep of stale pending invoices",
		Long: `Enqueue the reconciliation task for the worker instead of waiting for
worker.reconcile_cron. A sweep already queued or running is not duplicated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}

			client := asynq.NewClient(queue.RedisOpt(cfg.Redis))
			defer client.Close()

			id, err := queue.NewEnqueuer(client).EnqueueReconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%s)\n", queue.TypeReconcilePending, id)
			return nil
		},
	}
}
