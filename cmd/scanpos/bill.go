package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/billing"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/policy"
	"github.com/diewo77/scanpos/internal/scan"
)

const billHelp = `Scan a barcode or type a command:
  add ID [QTY]     add a product by id
  qty ITEM N       set a line quantity (0 removes)
  rm ITEM          remove a line
  discount AMOUNT  set the discount
  show             print the invoice
  refresh          reload from the store
  link [FILE.png]  share the invoice with a phone scanner
  complete         finalize the invoice
  quit             leave (the draft stays open)
`

func cmdBill(ctx context.Context, a *app, args []string) error {
	if err := a.require(policy.ResourceInvoice, gate.ActionCreate); err != nil {
		return err
	}
	fs := newFlags("bill", a)
	resume := fs.Uint("invoice", 0, "continue an existing draft")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b := newBiller(a.in, a.out, a.cfg.ScanCooldown)
	opts := b.sessionOptions(a.cfg.PollInterval, a.log)
	b.start = func(ctx context.Context) (*billing.Session, error) {
		if *resume != 0 {
			id := *resume
			*resume = 0
			return billing.Resume(ctx, a.api, id, opts...)
		}
		return billing.NewSession(a.api, opts...), nil
	}
	b.link = func(ctx context.Context, id uint) (scan.Link, error) {
		return scanLink(ctx, a.api, a.cfg.ScanBaseURL, id)
	}
	return b.run(ctx)
}

// biller is the interactive billing screen. Lines are either commands or
// barcodes from a keyboard-wedge scanner.
type biller struct {
	lines    <-chan string
	cooldown time.Duration
	start    func(context.Context) (*billing.Session, error)
	link     func(context.Context, uint) (scan.Link, error)

	sess *billing.Session
	fwd  *scan.Forwarder

	mu          sync.Mutex
	out         io.Writer
	lastSummary string
	lastPollErr string
}

func newBiller(in io.Reader, out io.Writer, cooldown time.Duration) *biller {
	return &biller{lines: readLines(in), out: out, cooldown: cooldown}
}

// readLines feeds in line by line into a channel that is closed at EOF, so
// the prompt can also wait on a context.
func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func (b *biller) sessionOptions(poll time.Duration, log zerolog.Logger) []billing.Option {
	return []billing.Option{
		billing.WithPollInterval(poll),
		billing.WithRemoveConfirmer(b.confirmRemove),
		billing.WithOnRefresh(b.refreshed),
		billing.WithPollErrorHandler(b.pollFailed),
		billing.WithLogger(log),
	}
}

func (b *biller) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

func (b *biller) ask(question string) bool {
	b.printf("%s [y/N] ", question)
	line, ok := <-b.lines
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (b *biller) confirmRemove(item dto.InvoiceItem) bool {
	name := item.ProductName
	if name == "" {
		name = fmt.Sprintf("item %d", item.ID)
	}
	return b.ask(fmt.Sprintf("Remove %s from the invoice?", name))
}

// refreshed prints a one-line summary whenever the invoice changes, whether
// the change was made here or by a linked scanner.
func (b *biller) refreshed(inv dto.Invoice) {
	totals := billing.ComputeDisplayTotals(inv.Items, inv.DiscountAmount)
	summary := fmt.Sprintf("[invoice %d %s] %d items, %d units, total %s",
		inv.ID, inv.Status, len(inv.Items), totals.Quantity, money(inv.TotalAmount))
	b.mu.Lock()
	defer b.mu.Unlock()
	if summary == b.lastSummary {
		return
	}
	b.lastSummary = summary
	b.lastPollErr = ""
	fmt.Fprintln(b.out, summary)
}

func (b *biller) pollFailed(err error) {
	msg := describe(err)
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg == b.lastPollErr {
		return
	}
	b.lastPollErr = msg
	fmt.Fprintf(b.out, "[sync] %s\n", msg)
}

func (b *biller) open(ctx context.Context) error {
	sess, err := b.start(ctx)
	if err != nil {
		return err
	}
	b.sess = sess
	b.fwd = scan.NewForwarder(sess, scan.WithCooldown(b.cooldown))
	return nil
}

func (b *biller) run(ctx context.Context) error {
	if err := b.open(ctx); err != nil {
		return err
	}
	defer func() { b.sess.Close() }()
	b.printf("%s", billHelp)

	for {
		b.printf("> ")
		var line string
		select {
		case <-ctx.Done():
			b.printf("\n")
			return nil
		case l, ok := <-b.lines:
			if !ok {
				b.printf("\n")
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		done, err := b.exec(ctx, line)
		if err != nil {
			b.printf("x %s\n", describe(err))
			if errors.Is(err, client.ErrAuthExpired) {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

// exec runs one line and reports whether the screen should close.
func (b *biller) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		b.printf("%s", billHelp)
	case "quit", "exit", "q":
		if inv, ok := b.sess.Invoice(); ok && inv.IsDraft() {
			b.printf("Draft %d left open, resume with: scanpos bill -invoice %d\n", inv.ID, inv.ID)
		}
		return true, nil
	case "show", "ls":
		b.show()
	case "add":
		if len(fields) < 2 || len(fields) > 3 {
			return false, fmt.Errorf("%w: add ID [QTY]", errUsage)
		}
		id, err := parseID(fields[1])
		if err != nil {
			return false, err
		}
		qty := 1
		if len(fields) == 3 {
			if qty, err = strconv.Atoi(fields[2]); err != nil {
				return false, fmt.Errorf("%w: quantity %q", errUsage, fields[2])
			}
		}
		return false, b.sess.AddItem(ctx, billing.ByProduct(id), qty)
	case "qty":
		if len(fields) != 3 {
			return false, fmt.Errorf("%w: qty ITEM N", errUsage)
		}
		itemID, err := parseID(fields[1])
		if err != nil {
			return false, err
		}
		qty, err := strconv.Atoi(fields[2])
		if err != nil {
			return false, fmt.Errorf("%w: quantity %q", errUsage, fields[2])
		}
		return false, b.sess.UpdateItemQuantity(ctx, itemID, qty)
	case "rm":
		if len(fields) != 2 {
			return false, fmt.Errorf("%w: rm ITEM", errUsage)
		}
		itemID, err := parseID(fields[1])
		if err != nil {
			return false, err
		}
		return false, b.sess.DeleteItem(ctx, itemID)
	case "discount":
		if len(fields) != 2 {
			return false, fmt.Errorf("%w: discount AMOUNT", errUsage)
		}
		d, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return false, fmt.Errorf("%w: amount %q", errUsage, fields[1])
		}
		if err := b.sess.SetDiscount(d); err != nil {
			return false, err
		}
		b.printTotals()
	case "refresh":
		return false, b.sess.Refresh(ctx)
	case "link":
		return false, b.shareLink(ctx, fields[1:])
	case "complete":
		return b.complete(ctx)
	default:
		if len(fields) != 1 {
			return false, fmt.Errorf("%w: unknown command %q, type help", errUsage, fields[0])
		}
		out := b.fwd.Handle(ctx, fields[0])
		switch {
		case out.Suppressed:
			b.printf("  duplicate scan of %s ignored\n", out.Code)
		case out.Err != nil:
			return false, out.Err
		default:
			b.printf("  + %s (%s)\n", out.Item.ProductName, money(out.Item.UnitPrice))
		}
	}
	return false, nil
}

func (b *biller) show() {
	inv, ok := b.sess.Invoice()
	if !ok {
		b.printf("No invoice yet, scan or add a product to start one\n")
		return
	}
	b.mu.Lock()
	printInvoice(b.out, &inv)
	b.mu.Unlock()
	if inv.IsDraft() {
		b.printTotals()
	}
}

func (b *biller) printTotals() {
	t := b.sess.DisplayTotals()
	b.printf("subtotal %s  tax %s  discount %s  to pay %s\n",
		money(t.Subtotal), money(t.Tax), money(t.Discount), money(t.GrandTotal))
}

func (b *biller) shareLink(ctx context.Context, args []string) error {
	id, err := b.sess.EnsureInvoice(ctx)
	if err != nil {
		return err
	}
	link, err := b.link(ctx, id)
	if err != nil {
		return err
	}
	b.printf("Open on the phone: %s\n", link)
	if len(args) > 0 {
		if err := writeQR(link, args[0], 256); err != nil {
			return err
		}
		b.printf("QR code written to %s\n", args[0])
	}
	return nil
}

func (b *biller) complete(ctx context.Context) (bool, error) {
	if len(b.sess.Items()) == 0 {
		return false, billing.ErrEmptyInvoice
	}
	if !b.ask(fmt.Sprintf("Complete this invoice, to pay %s?", money(b.sess.DisplayTotals().GrandTotal))) {
		return false, nil
	}
	inv, err := b.sess.Complete(ctx, b.sess.Discount())
	if err != nil {
		return false, err
	}
	b.printf("Invoice %s completed, total %s\n", inv.InvoiceNumber, money(inv.TotalAmount))
	b.printf("Print it with: scanpos receipt %d\n", inv.ID)
	if !b.ask("Start a new invoice?") {
		return true, nil
	}
	b.sess.Close()
	b.mu.Lock()
	b.lastSummary = ""
	b.mu.Unlock()
	return false, b.open(ctx)
}

// describe turns an error into a line for the cashier.
func describe(err error) string {
	switch {
	case errors.Is(err, billing.ErrEmptyInvoice):
		return "Cannot complete an invoice without items, add at least one product"
	case errors.Is(err, billing.ErrInvoiceCompleted):
		return "This invoice is already completed"
	case errors.Is(err, billing.ErrNoInvoice):
		return "No invoice yet, scan or add a product first"
	case errors.Is(err, billing.ErrProductNotFound):
		if m := client.Message(err); m != "" && !strings.HasPrefix(m, "billing:") {
			return m
		}
		return "Product not found"
	case errors.Is(err, billing.ErrStoreUnavailable):
		return "Could not create the invoice: " + client.Message(err)
	case errors.Is(err, errUsage):
		return err.Error()
	}
	return client.Message(err)
}
