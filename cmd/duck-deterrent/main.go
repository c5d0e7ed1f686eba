// Command duck-deterrent watches a pond edge with a PIR and a microwave
// presence sensor and drives a horn and an 8x8 LED matrix to chase ducks off.
package main

import "os"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
