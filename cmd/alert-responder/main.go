package main

import "github.com/oshokin/accirescue/cmd/alert-responder/cmd"

func main() {
	cmd.Execute()
}
