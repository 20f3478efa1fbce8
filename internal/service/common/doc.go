// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper with timeouts and the default
// responder identity used by consoles.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
