package main

import (
	"context"
	"os"

	"invoicer/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	code := cli.Main(context.Background(), os.Args[1:],
		cli.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr},
		cli.VersionInfo{Version: version, Commit: commit, Date: date})
	os.Exit(code)
}
