// Package v1 defines the AlertService gRPC contract described by alert.proto.
//
// Messages travel as google.protobuf.Struct values, so alert_grpc.go follows
// the protoc-gen-go-grpc layout for alert.proto without a generated message
// descriptor. The typed request and response structs in this package convert
// to and from those values.
package v1
