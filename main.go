package main

import (
	"os"

	"github.com/abhisek/quizcycle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
