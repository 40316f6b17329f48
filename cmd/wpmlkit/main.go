package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sourceplane/wpmlkit/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy to distinct process exit codes
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		return 2
	case errors.Is(err, model.ErrEntryNotFound):
		return 3
	case errors.Is(err, model.ErrMalformedMission):
		return 4
	case errors.Is(err, model.ErrInternalValidation):
		fmt.Fprintln(os.Stderr, "This is a bug in wpmlkit, not a problem with your mission. Please report it.")
		return 5
	}
	return 1
}
