// Package integration holds end-to-end tests that run the real alert server
// and talk to it through its gRPC and HTTP surfaces.
package integration
