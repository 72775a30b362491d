package main

import (
	"os"

	"github.com/gyeh/clinicbill/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
