// Package broadcast fans alert events out to every connected observer.
//
// Hub is a registry of observers keyed by connection ID. Broadcast never
// blocks on a slow observer: each observer owns a buffered channel, and an
// observer whose channel is full is evicted so its client reconnects and
// polls the state. Late observers do not receive past events.
package broadcast
