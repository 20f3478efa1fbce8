package main

import "github.com/oshokin/accirescue/cmd/alert-server/cmd"

func main() {
	cmd.Execute()
}
