// Package dispatch notifies nearby responders that a new alert is open.
//
// Recipients come from a responder directory, are ordered by distance to the
// accident and limited by radius and count. Every delivery attempt is written
// to the notification log; one failing recipient never stops the others.
package dispatch
