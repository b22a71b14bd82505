// Package capture wraps the GStreamer media engine behind a synchronous
// frame source with a bounded-wait acquire call.
//
// The engine delivers decoded samples asynchronously from its own
// threads. GstSource converts each sample into an owned Frame copy before
// handing it out, so callers never hold a reference into engine-managed
// memory. TryAcquire blocks for at most its configured timeout, which
// bounds one tick of whatever loop drives it.
//
// The engine itself is opaque: it is configured entirely by a pipeline
// description string (see the platform package for host templates) and
// polled for samples through an appsink named "sink".
package capture
