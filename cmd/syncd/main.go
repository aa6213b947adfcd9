package main

import (
	"os"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
