// Package greeting implements the hello-world job: a handler that greets
// a person in one of ten languages, plus the error-recovery and halt
// hooks a job runner calls around it.
//
// The package has three entry points on [Handler]:
//
//   - [Handler.Invoke]: build "<greeting>, <first> <last>!" for the
//     requested language, or a random one when none is given.
//   - [Handler.Error]: recover language/greeting failures with an English
//     fallback; report everything else as an [UnrecoverableError].
//   - [Handler.Halt]: acknowledge termination. Never fails.
//
// # Quick Start
//
//	h := greeting.NewHandler(greeting.WithLogger(slog.Default()))
//	res, _ := h.Invoke(ctx, greeting.JobParams{
//	    FirstName: "Maria",
//	    LastName:  "Garcia",
//	    Language:  greeting.LanguageSpanish,
//	}, greeting.ExecutionContext{})
//	fmt.Println(res.Message) // Hola Mundo, Maria Garcia!
//
// The handler is usually driven by a runner; see the runner package for
// an in-process one and the serverless package for HTTP push delivery.
package greeting
