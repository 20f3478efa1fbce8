// Package sms delivers alert notifications to responder phones.
//
// Twilio sends real messages through the Twilio REST API; Log is used when
// no credentials are configured and only records what would have been sent.
package sms
