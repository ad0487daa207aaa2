package main

import (
	"os"

	"github.com/goliatone/go-stationform/cmd/stationform/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
