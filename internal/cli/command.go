package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

// Command is one invoicer subcommand.
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Run         func(ctx context.Context, app *App, args []string) error
}

func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", c.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
	}
}

// VersionInfo holds build-time version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// Registry holds the commands in help order.
type Registry struct {
	commands map[string]*Command
	order    []string
	version  VersionInfo
}

func NewRegistry(v VersionInfo) *Registry {
	return &Registry{commands: make(map[string]*Command), version: v}
}

func (r *Registry) Register(cmd *Command) {
	if _, ok := r.commands[cmd.Name]; !ok {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Lookup returns the command named name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// NeedsApp reports whether args name a command that talks to the state
// store or the backend. Help, version and unknown commands do not.
func (r *Registry) NeedsApp(args []string) bool {
	if len(args) == 0 {
		return false
	}
	_, ok := r.Lookup(args[0])
	return ok
}

// Execute runs args[0] against app. app may be nil when NeedsApp is false.
func (r *Registry) Execute(ctx context.Context, app *App, args []string, out io.Writer) error {
	if len(args) < 1 {
		r.PrintHelp(out)
		return errors.New("no command specified")
	}

	switch args[0] {
	case "help", "-h", "--help":
		r.PrintHelp(out)
		return nil
	case "version", "--version":
		fmt.Fprintf(out, "invoicer %s (commit %s, built %s)\n", r.version.Version, r.version.Commit, r.version.Date)
		return nil
	}

	cmd, ok := r.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s (run 'invoicer help')", args[0])
	}
	if app == nil {
		return fmt.Errorf("%s: application not initialized", cmd.Name)
	}
	err := cmd.Run(ctx, app, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		cmd.PrintUsage(out)
		return nil
	}
	return err
}

func (r *Registry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "invoicer - command-line client for the invoicing backend")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    invoicer <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	for _, name := range r.order {
		fmt.Fprintf(w, "    %-10s %s\n", name, r.commands[name].Description)
	}
	fmt.Fprintf(w, "    %-10s %s\n", "version", "Print version information")
	fmt.Fprintf(w, "    %-10s %s\n", "help", "Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'invoicer <command> -h' for more information on a command.")
}
