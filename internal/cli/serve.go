package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	greeting "github.com/openjobspec/ojs-hello-world"
	"github.com/openjobspec/ojs-hello-world/middleware"
	"github.com/openjobspec/ojs-hello-world/middleware/prom"
	"github.com/openjobspec/ojs-hello-world/runner"
	"github.com/openjobspec/ojs-hello-world/serverless"
)

const metricPath = "/metrics"

// newServer wires the push-delivery handler, its runner and the metric
// endpoint. The runner is returned so the caller can shut it down.
func (a *app) newServer() (*http.Server, *runner.Runner, error) {
	h := greeting.NewHandler(greeting.WithLogger(a.logger))
	r := a.newRunner(h, a.conf.Runner.Timeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rec, err := prom.NewRecorder(reg)
	if err != nil {
		return nil, nil, err
	}
	r.InsertAfter("recovery", "metrics", middleware.Metrics(rec))

	push := serverless.NewHandler(h,
		serverless.WithLogger(a.logger),
		serverless.WithRunner(r),
	)

	router := push.Routes()
	if a.conf.HTTP.MetricsEnabled {
		router.Handle(metricPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.conf.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv, r, nil
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the job hooks for push delivery",
		Long: `Serve POST /invoke, /error and /halt plus GET /healthz on http.port.
GET /metrics exposes Prometheus metrics when http.metrics_enabled is set.
SIGINT or SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, r, err := a.newServer()
			if err != nil {
				return err
			}

			blue := color.New(color.FgBlue, color.Bold).FprintfFunc()
			blue(cmd.OutOrStdout(), "serving greeting hooks on %s\n", srv.Addr)

			g, gctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				a.logger.LogAttrs(gctx, slog.LevelInfo, "serving push delivery",
					slog.String("addr", srv.Addr),
					slog.Bool("metrics_enabled", a.conf.HTTP.MetricsEnabled),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("could not serve: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				select {
				case <-a.osSignal:
				case <-gctx.Done():
				}

				ctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.conf.Runner.GracePeriod)
				defer cancel()

				a.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down")
				if err := srv.Shutdown(ctx); err != nil {
					return fmt.Errorf("could not shut down server: %w", err)
				}
				return r.Shutdown(ctx)
			})

			if err := g.Wait(); err != nil {
				return err
			}

			blue(cmd.OutOrStdout(), "done\n")
			return nil
		},
	}

	cmd.Flags().Int("port", 8080, "port to listen on; overrides http.port")
	_ = a.vip.BindPFlag("http.port", cmd.Flags().Lookup("port"))

	return cmd
}
