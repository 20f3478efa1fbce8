package main

import "github.com/oshokin/accirescue/cmd/alert-watcher/cmd"

func main() {
	cmd.Execute()
}
