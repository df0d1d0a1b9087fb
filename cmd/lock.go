// File: cmd/lock.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wxauto/internal/lock"
	"github.com/xkilldash9x/wxauto/internal/observability"
)

func newLockCmd() *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspects the UI lock shared by automation processes",
	}

	var timeout time.Duration
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Reports whether another process is driving the client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if !cfg.Lock().Interprocess {
				fmt.Fprintln(cmd.OutOrStdout(), "inter-process locking is disabled")
				return nil
			}
			logger := observability.GetLogger()
			path := cfg.Lock().File

			metrics := observability.NewMetricsFromConfig(cfg.Metrics(), nil)
			l := lock.New(lock.Options{FilePath: path}, logger, metrics)
			defer func() {
				if err := l.Close(); err != nil {
					logger.Warn("Failed to close the UI lock.", zap.Error(err))
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			err = l.Do(ctx, func(context.Context) error { return nil })
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "free: %s\n", path)
				return nil
			case errors.Is(err, context.DeadlineExceeded):
				fmt.Fprintf(cmd.OutOrStdout(), "busy: %s\n", path)
				return nil
			}
			return fmt.Errorf("checking lock %s: %w", path, err)
		},
	}
	checkCmd.Flags().DurationVarP(&timeout, "timeout", "t", 500*time.Millisecond, "how long to wait for the lock")

	lockCmd.AddCommand(checkCmd)
	return lockCmd
}
