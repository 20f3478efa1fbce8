// Package arbitration implements the gRPC transport for alert arbitration.
//
// It adapts domain types to wire messages, maps the domain error taxonomy to
// gRPC status codes and streams broadcast events to Watch subscribers.
package arbitration
