package main

import (
	"os"

	"github.com/tobilabs/salesbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
