package main

import (
	"os"

	"github.com/modsort/modsort/cmd/modsort/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
