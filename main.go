package main

import (
	"os"

	"github.com/Attamusc/epic-digest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError("%v", err)
		os.Exit(1)
	}
}
