// Package serverless exposes the greeting job hooks over HTTP so a job
// server, or a function platform in front of one, can push work to it.
//
// # Push Delivery
//
//	h := serverless.NewHandler(greeting.NewHandler())
//	http.ListenAndServe(":8080", h)
//
// Routes:
//
//	POST /invoke   {"params": {...}, "context": {...}}  -> 200 JobResult
//	POST /error    ErrorParams                          -> 200 JobResult | 422
//	POST /halt     HaltParams                           -> 204
//	GET  /healthz                                       -> 200 {"status":"ok"}
//
// Every response carries an X-Request-Id header.
package serverless
