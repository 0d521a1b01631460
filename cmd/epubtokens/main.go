package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	rootCmd := NewRootCmd()
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		os.Exit(exitCode(err))
	}
}
