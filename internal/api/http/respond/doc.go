// Package respond is the HTTP boundary responders talk to.
//
// It accepts form or JSON submissions, answers with {"message": ...} and the
// matching status code, serves the waiting page, and pushes outcome events to
// browsers over server-sent events or WebSocket.
package respond
