// Command biblemarker annotates Bible verses from the command line: render a
// verse with its annotations, resolve and mark selections, manage keyword
// presets and sync everything through a folder.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
