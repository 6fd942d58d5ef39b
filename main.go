package main

import (
	"fmt"
	"os"

	"reddish/service"
)

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain runs the CLI against os.Args and exits non-zero on failure.
func RealMain() {
	if err := service.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
