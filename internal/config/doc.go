// Package config defines the settings shared by the accirescue binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Values may reference environment variables (${TWILIO_AUTH_TOKEN}); they
// are expanded before parsing so secrets do not have to live in the file.
package config
