// Package detector defines the shared command behind alert-dispatcher.
//
// It evaluates a camera frame with the detection collaborator and, on a
// positive verdict, asks the alert server to open an alert at the camera.
package detector
