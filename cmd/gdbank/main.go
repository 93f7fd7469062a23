package main

import (
	"os"

	"github.com/gdbank-dev/gdbank/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
