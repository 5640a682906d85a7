package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	greeting "github.com/openjobspec/ojs-hello-world"
	"github.com/openjobspec/ojs-hello-world/middleware"
	"github.com/openjobspec/ojs-hello-world/middleware/otel"
	"github.com/openjobspec/ojs-hello-world/runner"
)

// outcomeView is the printable form of a runner.Outcome.
type outcomeView struct {
	JobID      string              `json:"job_id"`
	State      runner.JobState     `json:"state"`
	Result     *greeting.JobResult `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	HaltReason string              `json:"halt_reason,omitempty"`
	Duration   string              `json:"duration"`
}

func newOutcomeView(o runner.Outcome) outcomeView {
	v := outcomeView{
		JobID:      o.JobID,
		State:      o.State,
		Result:     o.Result,
		HaltReason: o.HaltReason,
		Duration:   o.Duration.String(),
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return v
}

// newRunner creates a runner for the handler with the middleware stack
// every command shares.
func (a *app) newRunner(h runner.Hooks, timeout time.Duration) *runner.Runner {
	r := runner.New(h,
		runner.WithTimeout(timeout),
		runner.WithGracePeriod(a.conf.Runner.GracePeriod),
		runner.WithLogger(a.logger),
	)
	r.UseNamed("recovery", middleware.Recovery(a.logger))
	r.UseNamed("logging", middleware.Logging(a.logger))
	if a.conf.OTEL.Enabled {
		r.UseNamed("otel-tracing", otel.Tracing())
		r.UseNamed("otel-metrics", otel.Metrics())
	}
	return r
}

func newRunCmd(a *app) *cobra.Command {
	var (
		params  greeting.JobParams
		jobID   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job through the local runner",
		Long: `Run the job the way a worker would: invoke through the middleware
chain, the error hook on failure and the halt hook on timeout,
cancellation or shutdown. Prints the outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = a.conf.Runner.Timeout
			}

			h := greeting.NewHandler(greeting.WithLogger(a.logger))
			r := a.newRunner(h, timeout)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				select {
				case <-a.osSignal:
					_ = r.Shutdown(ctx)
				case <-ctx.Done():
				}
			}()

			out := r.Run(ctx, runner.Job{ID: jobID, Params: params})
			if err := printJSON(cmd.OutOrStdout(), newOutcomeView(out)); err != nil {
				return err
			}

			if out.State == runner.JobStateFailed {
				red := color.New(color.FgRed, color.Bold).FprintlnFunc()
				red(cmd.ErrOrStderr(), out.Err.Error())

				cmd.SilenceUsage = true
				return fmt.Errorf("job %s failed: %w", out.JobID, out.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name of the person to greet")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name of the person to greet")
	cmd.Flags().StringVar((*string)(&params.Language), "language", "", "language code, e.g. es; random if empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "job timeout; overrides runner.timeout")
	cmd.Flags().StringVar(&jobID, "job-id", "", "job id; a uuid is generated if empty")

	return cmd
}
