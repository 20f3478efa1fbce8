// Package responder defines the shared command behind alert-responder.
//
// The command submits an accept or reject decision to the alert server and
// retries transient transport failures until a definitive verdict arrives.
package responder
