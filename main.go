package main

import (
	"levermcp/cmd"
)

// version is the application version, injected at build time via
// -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
