package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/config"
	"github.com/diewo77/scanpos/internal/logging"
	"github.com/diewo77/scanpos/internal/policy"
)

var (
	errUsage            = errors.New("invalid usage")
	errNotLoggedIn      = errors.New("not logged in, run: scanpos login")
	errPermissionDenied = errors.New("permission denied")
)

// app is the state shared by every subcommand.
type app struct {
	cfg   config.ClientConfig
	api   *client.Client
	creds *client.Credentials
	in    *bufio.Reader
	out   io.Writer
	errw  io.Writer
	log   zerolog.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"login -email EMAIL [-password PASSWORD]", cmdLogin},
	"logout":   {"logout", cmdLogout},
	"whoami":   {"whoami", cmdWhoami},
	"products": {"products list|show|barcode|add|update|delete ...", cmdProducts},
	"users":    {"users list|show|add|update|delete ...", cmdUsers},
	"invoices": {"invoices list|show|delete ...", cmdInvoices},
	"bill":     {"bill [-invoice ID]", cmdBill},
	"scan":     {"scan -link URL | -invoice ID", cmdScan},
	"link":     {"link -invoice ID [-qr FILE.png] [-size PX]", cmdLink},
	"receipt":  {"receipt [-o FILE] [-store NAME] ID", cmdReceipt},
	"report":   {"report sales [-from DAY] [-to DAY] | report dashboard", cmdReport},
}

func run(ctx context.Context, cfg config.ClientConfig, args []string, in io.Reader, out, errw io.Writer) error {
	fs := flag.NewFlagSet("scanpos", flag.ContinueOnError)
	fs.SetOutput(errw)
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "store API base URL")
	fs.StringVar(&cfg.CredentialsPath, "credentials", cfg.CredentialsPath, "credentials file")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { usage(fs.Output()) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(errw)
		return errUsage
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		usage(errw)
		return fmt.Errorf("%w: unknown command %q", errUsage, fs.Arg(0))
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.Configure(errw, true, level)

	creds, err := client.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return err
	}
	a := &app{
		cfg:   cfg,
		creds: creds,
		in:    bufio.NewReader(in),
		out:   out,
		errw:  errw,
		log:   logger,
	}
	a.api = client.New(cfg.APIURL, creds, client.WithTimeout(cfg.RequestTimeout), client.WithLogger(logger))
	creds.OnClear(func() {
		if err := creds.Save(cfg.CredentialsPath); err != nil {
			logger.Warn().Err(err).Msg("could not remove credentials file")
		}
	})
	return cmd.run(ctx, a, fs.Args()[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: scanpos [-api URL] [-credentials FILE] [-v] COMMAND [ARGS]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// role is the role of the logged in user.
func (a *app) role() (policy.Role, error) {
	u, ok := a.creds.User()
	if !ok || a.creds.Token() == "" {
		return "", errNotLoggedIn
	}
	return policy.ParseRole(u.Role)
}

// require checks the permission locally before calling the store.
func (a *app) require(resource string, action gate.Action) error {
	r, err := a.role()
	if err != nil {
		return err
	}
	if !policy.Can(r, action, resource) {
		return fmt.Errorf("%w: %s cannot %s %s", errPermissionDenied, r, action, resource)
	}
	return nil
}

func (a *app) table() *tabwriter.Writer { return newTable(a.out) }

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// prompt reads one line, printing label first.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errUsage, s)
	}
	return uint(id), nil
}

// oneID parses a flag set whose only positional argument is an id.
func oneID(fs *flag.FlagSet, args []string) (uint, error) {
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: expected one id", errUsage)
	}
	return parseID(fs.Arg(0))
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", errUsage, s)
	}
	return t, nil
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errw)
	return fs
}
