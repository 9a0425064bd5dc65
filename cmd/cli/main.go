// Package main is the entry point for the whereabouts CLI binary.
package main

import (
	"os"

	cli "whereabouts/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
