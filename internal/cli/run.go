package cli

import (
	"context"
	"fmt"
)

// Main runs one invoicer invocation and returns the process exit code.
// Failures are printed as a single "Error: <message>" line.
func Main(ctx context.Context, args []string, s Streams, v VersionInfo) int {
	registry := NewDefaultRegistry(v)
	if !registry.NeedsApp(args) {
		return exitCode(s, registry.Execute(ctx, nil, args, s.Out))
	}

	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return exitCode(s, err)
	}
	logger := SetupLogger(cfg, s.Err)

	ctx, stop := SignalContext(ctx)
	defer stop()

	app, err := NewApp(ctx, cfg, s, logger)
	if err != nil {
		return exitCode(s, err)
	}
	defer app.Close()

	return exitCode(s, registry.Execute(ctx, app, args, s.Out))
}

func exitCode(s Streams, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(s.Err, "Error:", err)
	return 1
}
