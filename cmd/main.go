package main

import (
	"os"

	"github.com/altazietsman/lexi-meter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
