package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache/events"
	"github.com/prashanthpai/tablecache/table"
)

// _version is populated at build time using -ldflags -X.
var _version = "unknown"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version for tablecache",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Version: %s\nGo Version: %s\nOS/Arch: %s/%s\n",
				_version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newGetCommand(opts *options) *cobra.Command {
	var (
		limit  int
		offset int
		sortBy string
		desc   bool
	)
	cmd := &cobra.Command{
		Use:   "get [column=value ...]",
		Short: "Print the records matching all conditions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseConditions(args)
			if err != nil {
				return err
			}
			e, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.proxy.Initialize(ctx); err != nil {
				return err
			}
			o := &table.Options{Limit: limit, Offset: offset}
			if sortBy != "" {
				o.Sort = []table.Order{{Column: sortBy, Desc: desc}}
			}
			records, err := e.proxy.GetMany(ctx, conds, o)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records, 0 for all")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of records to skip")
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func newCountCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count [column=value ...]",
		Short: "Print the number of records matching all conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseConditions(args)
			if err != nil {
				return err
			}
			e, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.proxy.Initialize(ctx); err != nil {
				return err
			}
			n, err := e.proxy.Count(ctx, conds)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newInsertCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "insert column=value [column=value ...]",
		Short: "Insert one record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseConditions(args)
			if err != nil {
				return err
			}
			e, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.proxy.Initialize(ctx); err != nil {
				return err
			}
			return e.proxy.Insert(ctx, table.Record(values))
		},
	}
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete column=value [column=value ...]",
		Short: "Delete the records matching all conditions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := parseConditions(args)
			if err != nil {
				return err
			}
			e, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if err := e.proxy.Initialize(ctx); err != nil {
				return err
			}
			return e.proxy.Delete(ctx, conds)
		},
	}
}

func waitForSignal(logger *zap.Logger, stopCh chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("signal received", zap.String("signal", sig.String()))
	close(stopCh)
}

func newWatchCommand(opts *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the table open, follow settings changes and probe it periodically",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			stop := make(chan struct{})
			if e.file != nil {
				go func() {
					if err := e.file.Run(stop); err != nil {
						e.logger.Error("settings watcher failed", zap.Error(err))
					}
				}()
			}

			ctx := context.Background()
			if err := e.proxy.Initialize(ctx); err != nil {
				return err
			}
			sub := e.bus.Subscribe(events.EnvironmentUpdated, func(ctx context.Context) {
				cfg, _ := e.proxy.ActiveConfig()
				e.logger.Info("active table configuration",
					zap.String("strategy", string(cfg.CachingStrategy)),
					zap.Bool("debug", cfg.Debug),
				)
			})
			defer sub.Unsubscribe()

			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return
					case <-ticker.C:
						start := time.Now()
						n, err := e.proxy.Count(ctx, nil)
						if err != nil {
							e.logger.Error("probe failed", zap.Error(err))
							continue
						}
						e.logger.Info("probe",
							zap.Int64("records", n),
							zap.Duration("took", time.Since(start)),
						)
					}
				}
			}()

			waitForSignal(e.logger, stop)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "probe interval")
	return cmd
}
