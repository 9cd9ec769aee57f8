package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/theapemachine/atlas-demos/cmd"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))

		if errors.Is(err, errors.ErrConfig) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}
