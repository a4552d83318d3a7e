package main

import (
	"os"

	"github.com/mealdex/mealdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
