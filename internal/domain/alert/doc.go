// Package alert contains core domain types for accident-alert arbitration.
//
// It defines the Alert being arbitrated, the LockState that records who
// claimed it, the Submission/Verdict pair exchanged with responders, the
// Event pushed to observers, and the error taxonomy shared by transports.
package alert
