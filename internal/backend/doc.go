// Package backend is the typed client surface for the studio backend.
//
// Client wraps the REST endpoints the wizard consumes (cut/safety job
// creation, job status, clip listing and updates, safety reports, upload
// bookkeeping) and unwraps the backend's {data, error} envelope. Hub is the
// push side: a lazily-dialed WebSocket connection decoding job.done,
// safety.result, clip.updated, and publish.state frames and fanning them out
// to subscribers.
//
// Credentials are attached through a TokenSource; refreshing tokens is the
// caller's concern. An irrecoverable 401 surfaces as services.ErrAuth and
// ends the wizard session.
package backend
