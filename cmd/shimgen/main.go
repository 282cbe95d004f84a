package main

import (
	"os"

	"github.com/teranos/shimgen/cmd/shimgen/commands"
	"github.com/teranos/shimgen/display"
	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
)

func main() {
	err := commands.RootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		display.PrintError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
