package main

import (
	"os"

	"github.com/aiyi2099/bayeslite/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
