package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"curio/internal/autofill"
	"curio/internal/library"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}

func formatError(err error) string {
	var lookupErr *autofill.LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Message()
	}
	if library.ErrorKind(err) == "declined" {
		return "Cancelled; nothing was changed."
	}
	return err.Error()
}
