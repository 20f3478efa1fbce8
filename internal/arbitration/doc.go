// Package arbitration holds the single source of truth for "has this alert
// been claimed, and by whom".
//
// Lock is an explicitly owned object: the server creates one and injects it
// into the resolver. Its check-and-set runs in one critical section so that
// under any number of concurrent acceptances exactly one wins.
package arbitration
