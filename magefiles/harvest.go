//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search prints PMIDs matching query using the CLI.
func Search(query string) error {
	return sh.RunV("go", "run", cmdPkg, "search", query)
}

// Process searches for query and stores up to ten articles with their PDFs.
func Process(query string) error {
	mg.Deps(Init)
	fmt.Printf("[process] %q\n", query)
	return sh.RunV("go", "run", cmdPkg, "process", query)
}
