package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/policy"
	"github.com/diewo77/scanpos/internal/receipt"
	"github.com/diewo77/scanpos/internal/scan"
)

func cmdInvoices(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: invoices list|show|delete", errUsage)
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		if err := a.require(policy.ResourceInvoice, gate.ActionList); err != nil {
			return err
		}
		fs := newFlags("invoices list", a)
		var q client.InvoiceQuery
		fs.StringVar(&q.Status, "status", "", "draft or completed")
		from := fs.String("from", "", "first day, YYYY-MM-DD")
		to := fs.String("to", "", "last day, YYYY-MM-DD")
		fs.IntVar(&q.Page, "page", 1, "page")
		fs.IntVar(&q.PageSize, "size", 20, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		var err error
		if q.From, err = parseDay(*from); err != nil {
			return err
		}
		if q.To, err = parseDay(*to); err != nil {
			return err
		}
		list, err := a.api.ListInvoices(ctx, q)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tITEMS\tTOTAL\tCREATED")
		for _, inv := range list.Invoices {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", inv.ID, orDash(inv.InvoiceNumber), inv.Status,
				inv.ItemsCount, money(inv.TotalAmount), inv.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		pageFooter(a, list.Page, list.Pages, list.Total)
		return nil

	case "show":
		if err := a.require(policy.ResourceInvoice, gate.ActionView); err != nil {
			return err
		}
		id, err := oneID(newFlags("invoices show", a), args)
		if err != nil {
			return err
		}
		inv, err := a.api.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		printInvoice(a.out, inv)
		return nil

	case "delete":
		if err := a.require(policy.ResourceInvoice, gate.ActionDelete); err != nil {
			return err
		}
		id, err := oneID(newFlags("invoices delete", a), args)
		if err != nil {
			return err
		}
		if err := a.api.DeleteInvoice(ctx, id); err != nil {
			return err
		}
		a.printf("Invoice %d deleted\n", id)
		return nil
	}
	return fmt.Errorf("%w: unknown invoices command %q", errUsage, sub)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printInvoice(w io.Writer, inv *dto.Invoice) {
	fmt.Fprintf(w, "Invoice %d  %s  [%s]\n", inv.ID, orDash(inv.InvoiceNumber), inv.Status)
	printItems(w, inv.Items)
	fmt.Fprintf(w, "subtotal %s  tax %s  discount %s  total %s\n",
		money(inv.SubtotalAmount), money(inv.TotalTax), money(inv.DiscountAmount), money(inv.TotalAmount))
}

func printItems(w io.Writer, items []dto.InvoiceItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "  (no items)")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "  ITEM\tPRODUCT\tQTY\tPRICE\tTAX%\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\t%g\t%s\n",
			it.ID, it.ProductName, it.Quantity, money(it.UnitPrice), it.TaxPercent, money(it.LineTotal))
	}
	_ = tw.Flush()
}

// cmdLink prints the scan link of a draft and optionally writes its QR code.
func cmdLink(ctx context.Context, a *app, args []string) error {
	if err := a.require(policy.ResourceInvoice, gate.ActionUpdate); err != nil {
		return err
	}
	fs := newFlags("link", a)
	id := fs.Uint("invoice", 0, "draft invoice id")
	qrPath := fs.String("qr", "", "write a PNG QR code to this file")
	size := fs.Int("size", 256, "QR code size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("%w: -invoice is required", errUsage)
	}
	link, err := scanLink(ctx, a.api, a.cfg.ScanBaseURL, *id)
	if err != nil {
		return err
	}
	a.printf("%s\n", link)
	if *qrPath != "" {
		if err := writeQR(link, *qrPath, *size); err != nil {
			return err
		}
		a.printf("QR code written to %s\n", *qrPath)
	}
	return nil
}

func scanLink(ctx context.Context, api *client.Client, base string, invoiceID uint) (scan.Link, error) {
	tok, err := api.ScanToken(ctx, invoiceID)
	if err != nil {
		return scan.Link{}, err
	}
	return scan.Link{BaseURL: base, InvoiceID: tok.InvoiceID, Token: tok.Token}, nil
}

func writeQR(link scan.Link, path string, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := link.WriteQR(f, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdReceipt(ctx context.Context, a *app, args []string) error {
	if err := a.require(policy.ResourceInvoice, gate.ActionView); err != nil {
		return err
	}
	fs := newFlags("receipt", a)
	outPath := fs.String("o", "", "output file, stdout when empty")
	store := fs.String("store", "", "store name printed on top")
	currency := fs.String("currency", "", "currency symbol")
	id, err := oneID(fs, args)
	if err != nil {
		return err
	}
	inv, err := a.api.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	data := receipt.Data{StoreName: *store, Currency: *currency, Invoice: *inv}
	if u, ok := a.creds.User(); ok && u.ID == inv.UserID {
		data.Cashier = u.Name
	}
	if *outPath == "" {
		return receipt.Render(a.out, data)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	if err := receipt.Render(f, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.printf("Receipt written to %s\n", *outPath)
	return nil
}

func cmdReport(ctx context.Context, a *app, args []string) error {
	if err := a.require(policy.ResourceReport, gate.ActionView); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: report sales|dashboard", errUsage)
	}
	switch args[0] {
	case "sales":
		fs := newFlags("report sales", a)
		from := fs.String("from", "", "first day, YYYY-MM-DD (default 30 days ago)")
		to := fs.String("to", "", "last day, YYYY-MM-DD (default today)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f, err := parseDay(*from)
		if err != nil {
			return err
		}
		t, err := parseDay(*to)
		if err != nil {
			return err
		}
		r, err := a.api.SalesReport(ctx, f, t)
		if err != nil {
			return err
		}
		a.printf("Sales %s to %s\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
		a.printf("invoices %d  sales %s  tax %s  discount %s\n",
			r.InvoiceCount, money(r.TotalSales), money(r.TotalTax), money(r.TotalDiscount))
		tw := a.table()
		fmt.Fprintln(tw, "PRODUCT\tBARCODE\tQTY\tREVENUE")
		for _, p := range r.TopProducts {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ProductName, p.Barcode, p.TotalQuantity, money(p.TotalRevenue))
		}
		return tw.Flush()

	case "dashboard":
		d, err := a.api.Dashboard(ctx)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintln(tw, "PERIOD\tINVOICES\tSALES")
		fmt.Fprintf(tw, "today\t%d\t%s\n", d.Today.InvoiceCount, money(d.Today.TotalSales))
		fmt.Fprintf(tw, "week\t%d\t%s\n", d.Week.InvoiceCount, money(d.Week.TotalSales))
		fmt.Fprintf(tw, "month\t%d\t%s\n", d.Month.InvoiceCount, money(d.Month.TotalSales))
		if err := tw.Flush(); err != nil {
			return err
		}
		a.printf("\nactive products: %d\n", d.ProductCount)
		if len(d.LowStock) > 0 {
			a.printf("\nlow stock:\n")
			tw = a.table()
			for _, p := range d.LowStock {
				fmt.Fprintf(tw, "  %d\t%s\t%s\t%d left\n", p.ID, p.Name, p.Barcode, p.StockQty)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		if len(d.RecentInvoices) > 0 {
			a.printf("\nrecent invoices:\n")
			tw = a.table()
			for _, inv := range d.RecentInvoices {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", inv.InvoiceNumber, money(inv.TotalAmount), inv.Status)
			}
			return tw.Flush()
		}
		return nil
	}
	return fmt.Errorf("%w: unknown report %q", errUsage, args[0])
}
