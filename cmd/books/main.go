// Package main is the entry point for the books CLI.
package main

import (
	"os"

	"github.com/SscSPs/org_books/cmd/books/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
