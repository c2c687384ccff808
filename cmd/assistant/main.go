package main

import (
	"os"

	"github.com/aurora-press/editorial-assistant/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
