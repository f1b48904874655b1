package main

import (
	"os"

	"github.com/emlab/techdata/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
