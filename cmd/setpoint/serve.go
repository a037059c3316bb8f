package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/setpoint/pkg/adapters/http"
	"github.com/aretw0/setpoint/pkg/adapters/file"
	redisAdapter "github.com/aretw0/setpoint/pkg/adapters/redis"
	"github.com/aretw0/setpoint/pkg/observability"
	"github.com/aretw0/setpoint/pkg/registry"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the station over HTTP",
	Long: `Starts one driver per axis of the station and exposes them as a JSON API with
an SSE event stream and Prometheus metrics. With --redis, runs are journaled in
Redis and each axis is owned by a single process at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		runTTL, _ := cmd.Flags().GetDuration("run-ttl")
		journalDir, _ := cmd.Flags().GetString("journal")
		watch, _ := cmd.Flags().GetBool("watch")

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		store, err := openStation(cmd, logger)
		if err != nil {
			return err
		}

		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(promRegistry)
		streams := httpAdapter.NewStreamManager()

		w := axisWiring{
			logger: logger,
			hooks:  metrics.Hooks().Merge(streams.Hooks()),
		}
		var regOpts []registry.Option
		if redisAddr != "" {
			rs := redisAdapter.New(redisAddr, redisPassword, redisDB, redisAdapter.WithTTL(runTTL))
			defer rs.Close()
			w.journal = rs
			regOpts = append(regOpts, registry.WithLocker(redisAdapter.NewLocker(rs.Client(), "setpoint:lock:")))
			logger.Info("using redis", "address", redisAddr)
		} else {
			w.journal = file.NewRunStore(journalDir)
		}

		reg, err := newRegistry(store, w, regOpts...)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(reg,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
		)
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := runner.InterruptContext(cmd.Context())
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return reg.Run(ctx) })
		g.Go(func() error {
			logger.Info("setpoint server listening", "address", srv.Addr, "station", store.Path(), "axes", len(reg.Axes()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		})
		if watch {
			reloads, err := store.Watch(ctx)
			if err != nil {
				return err
			}
			g.Go(func() error {
				data, err := json.Marshal(map[string]string{"path": store.Path()})
				if err != nil {
					return err
				}
				for range reloads {
					streams.Broadcast("", httpAdapter.Message{Type: "station_reload", Data: data})
				}
				return nil
			})
		}

		err = g.Wait()
		logger.Info("setpoint server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for the run journal and axis locks (e.g. localhost:6379)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
	serveCmd.Flags().Duration("run-ttl", 7*24*time.Hour, "How long run records are kept in Redis")
	serveCmd.Flags().String("journal", ".setpoint/runs", "Directory for run records when Redis is not used")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload bounds and recipes when the station file changes")
}
