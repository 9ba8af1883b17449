// Command essentials installs plugins with their dependencies, either one
// operation at a time or as an HTTP service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
