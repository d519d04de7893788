// main.go
//
// Entry point for fcsim. Command handling lives in cmd/root.go.

package main

import (
	"github.com/fuelcycle-sim/fuelcycle-sim/cmd"
)

func main() {
	cmd.Execute()
}
