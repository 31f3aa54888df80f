package main

import (
	"os"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
