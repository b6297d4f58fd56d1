// Package llm provides an authenticated client for model deployment
// inference endpoints that answer either with a single JSON payload or with
// a server-sent-event token stream.
//
// Design goals:
//   - One retry/refresh policy: connect timeouts and 401-with-refresh share a
//     single attempt budget, visible in the control flow rather than hidden in
//     exceptions or decorators.
//   - Per-attempt signing: authentication headers are single-use; every
//     attempt is built and signed from scratch.
//   - Explicit streaming: the blocking pull form (Stream.Recv) and the
//     channel-based form (InvokeStreamCh) run the same line classification, so
//     the two paths cannot diverge.
//   - Pluggable response shapes: serving runtimes differ in wire schemas;
//     a Backend strategy is injected into Model instead of subclassed.
package llm
