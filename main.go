// The main package for the edgar-ingest executable.
package main

import (
	"github.com/finfeed/edgar-ingest/cmd"
)

func main() {
	cmd.Execute()
}
