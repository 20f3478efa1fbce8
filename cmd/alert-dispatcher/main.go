package main

import "github.com/oshokin/accirescue/cmd/alert-dispatcher/cmd"

func main() {
	cmd.Execute()
}
