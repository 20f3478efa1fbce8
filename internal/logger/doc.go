// Package logger wraps zap with a process-wide console logger and context helpers.
//
// Services accept a context and extract the logger from it, so a request or
// an observer carries its own named, structured logger through the call chain.
// Configure changes the level of every logger built by New at once.
package logger
