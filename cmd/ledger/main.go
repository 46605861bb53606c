package main

import (
	"os"

	"github.com/boddenberg/ledger-client-go/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
