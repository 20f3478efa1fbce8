// Package records implements persistence for the notification log and the
// responder directory.
//
// FileRepository appends records as JSON lines on disk, MongoRepository
// talks to the document store shared with the operator console, and
// StaticDirectory serves responders listed in the settings file.
package records
