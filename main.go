package main

import (
	"cafelist/internal/cli"
	"cafelist/internal/dashboard"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cli.Version = Version
	dashboard.Version = Version
	cli.Execute()
}
