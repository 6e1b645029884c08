// Command tripprint builds per-vehicle trip profiles from trip logs,
// calibrates their decision thresholds and checks new trips against them.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
