// Package watcher defines the shared command behind alert-watcher.
//
// The watcher follows the server's event stream, logs every outcome and exits
// once an acceptance redirects observers away from the pending alert.
package watcher
