package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/policy"
	"github.com/diewo77/scanpos/internal/scan"
)

// cmdScan turns this terminal into a scanner for an invoice billed
// elsewhere. With -link it only holds the invoice-scoped token.
func cmdScan(ctx context.Context, a *app, args []string) error {
	fs := newFlags("scan", a)
	rawLink := fs.String("link", "", "scan link shared by the billing screen")
	invoiceID := fs.Uint("invoice", 0, "invoice to scan into with your own login")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api := a.api
	var id uint
	switch {
	case *rawLink != "" && *invoiceID != 0:
		return fmt.Errorf("%w: use either -link or -invoice", errUsage)
	case *rawLink != "":
		link, err := scan.ParseLink(*rawLink)
		if err != nil {
			return err
		}
		creds := client.NewCredentials()
		creds.SetScan(link.Token, time.Time{}, link.InvoiceID)
		api = client.New(a.cfg.APIURL, creds, client.WithTimeout(a.cfg.RequestTimeout), client.WithLogger(a.log))
		id = link.InvoiceID
	case *invoiceID != 0:
		if err := a.require(policy.ResourceInvoice, gate.ActionUpdate); err != nil {
			return err
		}
		id = *invoiceID
	default:
		return fmt.Errorf("%w: scan -link URL | -invoice ID", errUsage)
	}

	linked := scan.NewLinkedInvoice(api, id)
	inv, err := linked.Check(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Scanning into invoice %d (%d items). Scan codes, Ctrl-D to stop.\n", inv.ID, len(inv.Items))

	fwd := scan.NewForwarder(linked,
		scan.WithCooldown(a.cfg.ScanCooldown),
		scan.WithResultHandler(scanPrinter(a.out)),
		scan.WithLogger(a.log),
	)
	return fwd.Run(ctx, readLines(a.in))
}

func scanPrinter(w io.Writer) func(scan.Outcome) {
	var mu sync.Mutex
	return func(o scan.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case o.Code == "":
		case o.Suppressed:
			fmt.Fprintf(w, "  duplicate scan of %s ignored\n", o.Code)
		case o.Err != nil:
			fmt.Fprintf(w, "x %s: %s\n", o.Code, describe(o.Err))
		default:
			fmt.Fprintf(w, "  + Added: %s (%s)\n", o.Item.ProductName, money(o.Item.UnitPrice))
		}
	}
}
