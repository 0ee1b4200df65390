package main

import (
	"os"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
