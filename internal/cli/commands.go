package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"invoicer/internal/core"
	"invoicer/internal/log"
	"invoicer/internal/services"
	"invoicer/internal/storage"
)

// NewDefaultRegistry returns a registry with every invoicer command.
func NewDefaultRegistry(v VersionInfo) *Registry {
	r := NewRegistry(v)

	r.Register(&Command{
		Name:        "login",
		Description: "Sign in and remember the session",
		Usage:       "invoicer login --email <email> [--password <password>]",
		Examples:    []string{"invoicer login --email me@studio.in"},
		Run:         loginCommand,
	})
	r.Register(&Command{
		Name:        "signup",
		Description: "Create an account",
		Usage:       "invoicer signup --name <name> --email <email> --password <pw> --confirm <pw> [--business <name>] [--address <addr>] [--phone <phone>]",
		Run:         signupCommand,
	})
	r.Register(&Command{
		Name:        "logout",
		Description: "Sign out and discard saved drafts",
		Usage:       "invoicer logout",
		Run:         logoutCommand,
	})
	r.Register(&Command{
		Name:        "whoami",
		Description: "Show the signed-in user",
		Usage:       "invoicer whoami",
		Run:         whoamiCommand,
	})
	r.Register(&Command{
		Name:        "profile",
		Description: "Show or update the business profile",
		Usage:       "invoicer profile [--name <name>] [--email <email>] [--business <name>] [--address <addr>] [--phone <phone>]",
		Examples:    []string{"invoicer profile", "invoicer profile --business \"Acme Studio\""},
		Run:         profileCommand,
	})
	r.Register(&Command{
		Name:        "list",
		Description: "List invoices",
		Usage:       "invoicer list [--status all|paid|unpaid] [--search <term>]",
		Examples:    []string{"invoicer list --status unpaid", "invoicer list --search globex"},
		Run:         listCommand,
	})
	r.Register(&Command{
		Name:        "show",
		Description: "Show one invoice",
		Usage:       "invoicer show <id>",
		Run:         showCommand,
	})
	r.Register(&Command{
		Name:        "mark",
		Description: "Set the status of an invoice",
		Usage:       "invoicer mark <id> paid|unpaid",
		Run:         markCommand,
	})
	r.Register(&Command{
		Name:        "toggle",
		Description: "Flip an invoice between paid and unpaid",
		Usage:       "invoicer toggle <id>",
		Run:         toggleCommand,
	})
	r.Register(&Command{
		Name:        "delete",
		Description: "Delete an invoice",
		Usage:       "invoicer delete <id> [--yes]",
		Run:         deleteCommand,
	})
	r.Register(&Command{
		Name:        "dashboard",
		Description: "Show invoice stats and recent invoices",
		Usage:       "invoicer dashboard [--insights]",
		Run:         dashboardCommand,
	})
	r.Register(&Command{
		Name:        "draft",
		Description: "Compose an invoice step by step",
		Usage:       "invoicer draft [--name <draft>] new|show|list|set <field> <value>|item add|item set <n> <field> <value>|item rm <n>|submit|discard",
		Examples: []string{
			"invoicer draft new",
			"invoicer draft set billTo.name \"Globex Pvt Ltd\"",
			"invoicer draft item set 1 price 2500",
			"invoicer draft submit",
		},
		Run: draftCommand,
	})
	r.Register(&Command{
		Name:        "ai-parse",
		Description: "Generate an invoice from a plain-text description",
		Usage:       "invoicer ai-parse <text>",
		Examples:    []string{"invoicer ai-parse \"3 hours of consulting for Initech at 2000 per hour, 18% GST\""},
		Run:         aiParseCommand,
	})
	r.Register(&Command{
		Name:        "remind",
		Description: "Draft a payment reminder email for an unpaid invoice",
		Usage:       "invoicer remind <id>",
		Run:         remindCommand,
	})
	r.Register(&Command{
		Name:        "insights",
		Description: "Ask for AI insights about your invoices",
		Usage:       "invoicer insights",
		Run:         insightsCommand,
	})
	r.Register(&Command{
		Name:        "export",
		Description: "Write the invoice list to the configured Google Sheet",
		Usage:       "invoicer export [--status all|paid|unpaid] [--search <term>]",
		Run:         exportCommand,
	})
	return r
}

// parseArgs parses flags that may appear before, between or after positional
// arguments and returns the positional ones. Negative numbers are positional,
// and everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for len(args) > 0 {
		if negativeNumber(args[0]) {
			pos = append(pos, args[0])
			args = args[1:]
			continue
		}
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(pos, rest...), nil
		}
		if len(rest) == 0 {
			break
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
	return pos, nil
}

func negativeNumber(s string) bool {
	if !strings.HasPrefix(s, "-") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func usageError(cmd string) error {
	return fmt.Errorf("invalid arguments (run 'invoicer %s -h')", cmd)
}

func flagSet(app *App, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(app.errOut)
	fs.Usage = func() {}
	return fs
}

func loginCommand(ctx context.Context, app *App, args []string) error {
	fs := flagSet(app, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *password == "" && *email != "" {
		pw, err := app.readLine("Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}
	p, err := app.session.Login(ctx, core.Credentials{Email: strings.TrimSpace(*email), Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Logged in as %s <%s>\n", orNA(p.FullName), p.Email)
	return nil
}

func signupCommand(ctx context.Context, app *App, args []string) error {
	fs := flagSet(app, "signup")
	var req core.SignupRequest
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.ConfirmPassword, "confirm", "", "password again")
	fs.StringVar(&req.BusinessName, "business", "", "business name")
	fs.StringVar(&req.BusinessAddress, "address", "", "business address")
	fs.StringVar(&req.BusinessPhone, "phone", "", "business phone")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	p, err := app.session.Signup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Account created for %s <%s>\n", p.FullName, p.Email)
	return nil
}

func logoutCommand(ctx context.Context, app *App, _ []string) error {
	if err := app.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Logged out.")
	return nil
}

func whoamiCommand(_ context.Context, app *App, _ []string) error {
	p := app.session.CurrentUser()
	if p == nil {
		return errors.New("Not logged in")
	}
	printProfile(app.out, p)
	return nil
}

func profileCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	current := app.session.CurrentUser()
	u := core.UpdateFrom(*current)

	fs := flagSet(app, "profile")
	fs.StringVar(&u.FullName, "name", u.FullName, "full name")
	fs.StringVar(&u.Email, "email", u.Email, "email")
	fs.StringVar(&u.BusinessName, "business", u.BusinessName, "business name")
	fs.StringVar(&u.BusinessAddress, "address", u.BusinessAddress, "business address")
	fs.StringVar(&u.BusinessPhone, "phone", u.BusinessPhone, "business phone")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if fs.NFlag() == 0 {
		printProfile(app.out, current)
		return nil
	}
	p, err := app.session.UpdateProfile(ctx, u)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Profile updated.")
	printProfile(app.out, p)
	return nil
}

// projection loads the list and applies the --status and --search flags.
func projection(ctx context.Context, app *App, status, search string) (*services.ListView, error) {
	filter, err := core.ParseStatusFilter(status)
	if err != nil {
		return nil, fmt.Errorf("%w %q: use all, paid or unpaid", err, status)
	}
	v := services.NewListView(app.svc)
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	v.SetStatusFilter(filter)
	v.SetSearch(search)
	return v, nil
}

func listCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	fs := flagSet(app, "list")
	status := fs.String("status", "all", "all, paid or unpaid")
	search := fs.String("search", "", "match invoice number, client name or email")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	v, err := projection(ctx, app, *status, *search)
	if err != nil {
		return err
	}
	defer v.Close()
	printInvoiceTable(app.out, app.symbol(), v.Visible())
	return nil
}

func oneID(name string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageError(name)
	}
	return args[0], nil
}

func showCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	id, err := oneID("show", args)
	if err != nil {
		return err
	}
	v := services.NewDetailView(app.svc)
	defer v.Close()
	if err := v.Load(ctx, id); err != nil {
		return err
	}
	inv, _ := v.Invoice()
	printInvoice(app.out, app.symbol(), inv)
	return nil
}

func markCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	if len(args) != 2 {
		return usageError("mark")
	}
	status, err := core.ParseStatus(strings.ToLower(args[1]))
	if err != nil {
		return fmt.Errorf("%w %q: use paid or unpaid", err, args[1])
	}
	v := services.NewDetailView(app.svc)
	defer v.Close()
	if err := v.Load(ctx, args[0]); err != nil {
		return err
	}
	if err := v.SetStatus(ctx, status); err != nil {
		return err
	}
	inv, _ := v.Invoice()
	fmt.Fprintf(app.out, "Invoice %s marked as %s.\n", orNA(inv.InvoiceNumber), inv.Status)
	return nil
}

func toggleCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	id, err := oneID("toggle", args)
	if err != nil {
		return err
	}
	v := services.NewListView(app.svc)
	defer v.Close()
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	if err := v.ToggleStatus(ctx, id); err != nil {
		return err
	}
	for _, inv := range v.All() {
		if inv.ID == id {
			fmt.Fprintf(app.out, "Invoice %s is now %s.\n", orNA(inv.InvoiceNumber), inv.Status)
			return nil
		}
	}
	fmt.Fprintln(app.out, "Status updated.")
	return nil
}

func deleteCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	fs := flagSet(app, "delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := oneID("delete", pos)
	if err != nil {
		return err
	}
	var confirm services.Confirmer = app
	if *yes {
		confirm = services.ConfirmFunc(func(string) bool { return true })
	}
	v := services.NewListView(app.svc)
	defer v.Close()
	deleted, err := v.Delete(ctx, id, confirm)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(app.out, "Cancelled.")
		return nil
	}
	fmt.Fprintln(app.out, "Invoice deleted.")
	return nil
}

func dashboardCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	fs := flagSet(app, "dashboard")
	withInsights := fs.Bool("insights", false, "also fetch AI insights")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	d := services.NewDashboard(app.svc)
	defer d.Close()
	var insightsErr error
	if *withInsights {
		var err error
		if insightsErr, err = d.LoadWithInsights(ctx); err != nil {
			return err
		}
	} else if err := d.Load(ctx); err != nil {
		return err
	}

	st := d.Stats()
	if p := app.session.CurrentUser(); p != nil {
		fmt.Fprintf(app.out, "Welcome back, %s\n\n", orNA(p.FullName))
	}
	fmt.Fprintf(app.out, "Total invoices:  %d\n", st.TotalInvoices)
	fmt.Fprintf(app.out, "Paid:            %d\n", st.PaidInvoices)
	fmt.Fprintf(app.out, "Unpaid:          %d\n", st.UnpaidInvoices)
	fmt.Fprintf(app.out, "Total revenue:   %s\n\n", FormatCurrency(app.symbol(), st.TotalRevenue))
	fmt.Fprintln(app.out, "Recent invoices:")
	printInvoiceTable(app.out, app.symbol(), d.Recent())

	if text := d.Insights(); text != "" {
		fmt.Fprintf(app.out, "\nInsights:\n%s\n", text)
	}
	if insightsErr != nil {
		fmt.Fprintf(app.errOut, "Insights unavailable: %v\n", insightsErr)
	}
	return nil
}

func draftCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	fs := flagSet(app, "draft")
	name := fs.String("name", services.DefaultDraft, "draft name")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return usageError("draft")
	}

	w := app.drafts
	show := func(d core.Draft, err error) error {
		if err != nil {
			return err
		}
		printDraft(app.out, app.symbol(), *name, d)
		return nil
	}

	switch sub, rest := pos[0], pos[1:]; sub {
	case "new":
		return show(w.Start(ctx, *name))
	case "show":
		d, err := w.Get(ctx, *name)
		if errors.Is(err, storage.ErrDraftNotFound) {
			return fmt.Errorf("no draft named %q: run 'invoicer draft new'", *name)
		}
		return show(d, err)
	case "list":
		infos, err := w.List(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(app.out, "No saved drafts.")
			return nil
		}
		tw := NewTableWriter("NAME", "UPDATED")
		for _, info := range infos {
			tw.AddRow(info.Name, FormatTime(info.UpdatedAt))
		}
		tw.Print(app.out)
		return nil
	case "set":
		if len(rest) != 2 {
			return usageError("draft")
		}
		return show(w.SetField(ctx, *name, rest[0], rest[1]))
	case "item":
		return draftItem(ctx, app, *name, rest, show)
	case "submit":
		res, err := w.Submit(ctx, *name, app.svc)
		if err != nil {
			return err
		}
		app.logger.Debug("Draft submitted", log.FieldDraft, *name, log.FieldInvoiceID, res.Invoice.ID)
		fmt.Fprintf(app.out, "Invoice %s created.\n", res.Invoice.InvoiceNumber)
		fmt.Fprintf(app.out, "Next: %s\n", res.Next)
		return nil
	case "discard":
		if err := w.Discard(ctx, *name); err != nil {
			return err
		}
		fmt.Fprintf(app.out, "Draft %q discarded.\n", *name)
		return nil
	}
	return usageError("draft")
}

func draftItem(ctx context.Context, app *App, name string, args []string, show func(core.Draft, error) error) error {
	if len(args) == 0 {
		return usageError("draft")
	}
	index := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid item number %q", s)
		}
		return n - 1, nil
	}

	w := app.drafts
	switch args[0] {
	case "add":
		return show(w.AddItem(ctx, name))
	case "set":
		if len(args) != 4 {
			return usageError("draft")
		}
		i, err := index(args[1])
		if err != nil {
			return err
		}
		return show(w.SetItem(ctx, name, i, args[2], args[3]))
	case "rm":
		if len(args) != 2 {
			return usageError("draft")
		}
		i, err := index(args[1])
		if err != nil {
			return err
		}
		return show(w.RemoveItem(ctx, name, i))
	}
	return usageError("draft")
}

func aiParseCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	res, err := app.svc.ParseText(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Invoice generated. Next: %s\n\n", res.Next)
	if res.Invoice.ID != "" {
		printInvoice(app.out, app.symbol(), res.Invoice)
		return nil
	}
	v := services.NewListView(app.svc)
	defer v.Close()
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	printInvoiceTable(app.out, app.symbol(), v.Visible())
	return nil
}

func remindCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	id, err := oneID("remind", args)
	if err != nil {
		return err
	}
	inv, err := app.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	text, err := app.svc.Reminder(ctx, inv)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, text)
	return nil
}

func insightsCommand(ctx context.Context, app *App, _ []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	d := services.NewDashboard(app.svc)
	defer d.Close()
	insightsErr, err := d.LoadWithInsights(ctx)
	if err != nil {
		return err
	}
	if d.Stats().TotalInvoices == 0 {
		return errors.New("Insights need at least one invoice")
	}
	if insightsErr != nil {
		return insightsErr
	}
	fmt.Fprintln(app.out, d.Insights())
	return nil
}

func exportCommand(ctx context.Context, app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	fs := flagSet(app, "export")
	status := fs.String("status", "all", "all, paid or unpaid")
	search := fs.String("search", "", "match invoice number, client name or email")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	exp, err := app.newExporter(ctx)
	if err != nil {
		return err
	}
	v, err := projection(ctx, app, *status, *search)
	if err != nil {
		return err
	}
	defer v.Close()
	n, err := exp.Export(ctx, v.Visible())
	if err != nil {
		app.logger.Warn("Export failed", log.FieldOperation, log.OpExport, log.FieldError, err.Error())
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(app.out, "Exported %d invoice(s).\n", n)
	return nil
}
