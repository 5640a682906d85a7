// Package runner drives the hooks of a greeting job in-process.
//
// A [Runner] takes the part of the external job runner: it calls invoke
// through a composable middleware chain, hands failures to the error
// hook, and calls halt when a job is timed out, cancelled or caught by
// shutdown.
//
//	r := runner.New(greeting.NewHandler(), runner.WithTimeout(10*time.Second))
//	r.UseNamed("logging", middleware.Logging(slog.Default()))
//	out := r.Run(ctx, runner.Job{Params: greeting.JobParams{FirstName: "John", LastName: "Doe"}})
//	switch out.State {
//	case runner.JobStateCompleted, runner.JobStateRecovered:
//	    fmt.Println(out.Result.Message)
//	case runner.JobStateFailed:
//	    log.Println(out.Err)
//	case runner.JobStateHalted:
//	    log.Println("halted:", out.HaltReason)
//	}
//
// Jobs are run one per Run call; the runner never batches.
package runner
