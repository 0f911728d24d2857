// Package nodeflow provides a minimal public façade for hosting flows
// without importing internal packages. It re-exports the core node and flow
// types for convenience and exposes a Runtime with simple methods to build,
// run, and persist flows.
package nodeflow
