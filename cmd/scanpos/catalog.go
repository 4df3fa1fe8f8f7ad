package main

import (
	"context"
	"fmt"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/internal/client"
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/policy"
)

func cmdProducts(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: products list|show|barcode|add|update|delete", errUsage)
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		if err := a.require(policy.ResourceProduct, gate.ActionList); err != nil {
			return err
		}
		fs := newFlags("products list", a)
		q := client.ListQuery{}
		fs.StringVar(&q.Search, "search", "", "name or barcode")
		fs.BoolVar(&q.ShowInactive, "inactive", false, "include inactive products")
		fs.IntVar(&q.Page, "page", 1, "page")
		fs.IntVar(&q.PageSize, "size", 20, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := a.api.ListProducts(ctx, q)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNAME\tBARCODE\tPRICE\tTAX%\tSTOCK\tSTATUS")
		for _, p := range list.Products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%d\t%s\n",
				p.ID, p.Name, p.Barcode, money(p.Price), p.TaxPercent, p.StockQty, activeLabel(p.IsActive))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		pageFooter(a, list.Page, list.Pages, list.Total)
		return nil

	case "show", "barcode":
		if err := a.require(policy.ResourceProduct, gate.ActionView); err != nil {
			return err
		}
		if len(args) != 1 {
			return fmt.Errorf("%w: products %s ID|CODE", errUsage, sub)
		}
		var p *dto.Product
		var err error
		if sub == "barcode" {
			p, err = a.api.ProductByBarcode(ctx, args[0])
		} else {
			var id uint
			if id, err = parseID(args[0]); err != nil {
				return err
			}
			p, err = a.api.GetProduct(ctx, id)
		}
		if err != nil {
			return err
		}
		printProduct(a, p)
		return nil

	case "add":
		if err := a.require(policy.ResourceProduct, gate.ActionCreate); err != nil {
			return err
		}
		fs := newFlags("products add", a)
		var req dto.ProductRequest
		fs.StringVar(&req.Name, "name", "", "name")
		fs.StringVar(&req.Barcode, "barcode", "", "barcode")
		fs.Float64Var(&req.Price, "price", 0, "unit price")
		fs.Float64Var(&req.TaxPercent, "tax", 0, "tax percent")
		fs.IntVar(&req.StockQty, "stock", 0, "stock quantity")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := a.api.CreateProduct(ctx, req)
		if err != nil {
			return err
		}
		a.printf("Created product %d\n", p.ID)
		printProduct(a, p)
		return nil

	case "update":
		if err := a.require(policy.ResourceProduct, gate.ActionUpdate); err != nil {
			return err
		}
		fs := newFlags("products update", a)
		name := fs.String("name", "", "name")
		barcode := fs.String("barcode", "", "barcode, empty to clear")
		price := fs.Float64("price", 0, "unit price")
		tax := fs.Float64("tax", 0, "tax percent")
		stock := fs.Int("stock", 0, "stock quantity")
		active := fs.Bool("active", true, "active")
		id, err := oneID(fs, args)
		if err != nil {
			return err
		}
		set := visited(fs)
		var patch dto.ProductPatch
		if set["name"] {
			patch.Name = name
		}
		if set["barcode"] {
			patch.Barcode = barcode
		}
		if set["price"] {
			patch.Price = price
		}
		if set["tax"] {
			patch.TaxPercent = tax
		}
		if set["stock"] {
			patch.StockQty = stock
		}
		if set["active"] {
			patch.IsActive = active
		}
		p, err := a.api.UpdateProduct(ctx, id, patch)
		if err != nil {
			return err
		}
		printProduct(a, p)
		return nil

	case "delete":
		if err := a.require(policy.ResourceProduct, gate.ActionDelete); err != nil {
			return err
		}
		id, err := oneID(newFlags("products delete", a), args)
		if err != nil {
			return err
		}
		if err := a.api.DeleteProduct(ctx, id); err != nil {
			return err
		}
		a.printf("Product %d deactivated\n", id)
		return nil
	}
	return fmt.Errorf("%w: unknown products command %q", errUsage, sub)
}

func printProduct(a *app, p *dto.Product) {
	tw := a.table()
	fmt.Fprintf(tw, "id:\t%d\n", p.ID)
	fmt.Fprintf(tw, "name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "barcode:\t%s\n", p.Barcode)
	fmt.Fprintf(tw, "price:\t%s\n", money(p.Price))
	fmt.Fprintf(tw, "tax:\t%g%%\n", p.TaxPercent)
	fmt.Fprintf(tw, "stock:\t%d\n", p.StockQty)
	fmt.Fprintf(tw, "status:\t%s\n", activeLabel(p.IsActive))
	_ = tw.Flush()
}

func cmdUsers(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: users list|show|add|update|delete", errUsage)
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		if err := a.require(policy.ResourceUser, gate.ActionList); err != nil {
			return err
		}
		fs := newFlags("users list", a)
		q := client.ListQuery{}
		fs.StringVar(&q.Search, "search", "", "name or email")
		fs.IntVar(&q.Page, "page", 1, "page")
		fs.IntVar(&q.PageSize, "size", 20, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := a.api.ListUsers(ctx, q)
		if err != nil {
			return err
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
		for _, u := range list.Users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, activeLabel(u.IsActive))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		pageFooter(a, list.Page, list.Pages, list.Total)
		return nil

	case "show":
		if err := a.require(policy.ResourceUser, gate.ActionView); err != nil {
			return err
		}
		id, err := oneID(newFlags("users show", a), args)
		if err != nil {
			return err
		}
		u, err := a.api.GetUser(ctx, id)
		if err != nil {
			return err
		}
		printUser(a, u)
		return nil

	case "add":
		if err := a.require(policy.ResourceUser, gate.ActionCreate); err != nil {
			return err
		}
		fs := newFlags("users add", a)
		var req dto.UserRequest
		fs.StringVar(&req.Name, "name", "", "name")
		fs.StringVar(&req.Email, "email", "", "email")
		fs.StringVar(&req.Password, "password", "", "password")
		fs.StringVar(&req.Role, "role", string(policy.RoleCashier), "admin or cashier")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if _, err := policy.ParseRole(req.Role); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		u, err := a.api.CreateUser(ctx, req)
		if err != nil {
			return err
		}
		a.printf("Created user %d\n", u.ID)
		printUser(a, u)
		return nil

	case "update":
		if err := a.require(policy.ResourceUser, gate.ActionUpdate); err != nil {
			return err
		}
		fs := newFlags("users update", a)
		name := fs.String("name", "", "name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "new password")
		role := fs.String("role", "", "admin or cashier")
		active := fs.Bool("active", true, "active")
		id, err := oneID(fs, args)
		if err != nil {
			return err
		}
		set := visited(fs)
		var patch dto.UserPatch
		if set["name"] {
			patch.Name = name
		}
		if set["email"] {
			patch.Email = email
		}
		if set["password"] {
			patch.Password = password
		}
		if set["role"] {
			if _, err := policy.ParseRole(*role); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			patch.Role = role
		}
		if set["active"] {
			patch.IsActive = active
		}
		u, err := a.api.UpdateUser(ctx, id, patch)
		if err != nil {
			return err
		}
		printUser(a, u)
		return nil

	case "delete":
		if err := a.require(policy.ResourceUser, gate.ActionDelete); err != nil {
			return err
		}
		id, err := oneID(newFlags("users delete", a), args)
		if err != nil {
			return err
		}
		if err := a.api.DeleteUser(ctx, id); err != nil {
			return err
		}
		a.printf("User %d deleted\n", id)
		return nil
	}
	return fmt.Errorf("%w: unknown users command %q", errUsage, sub)
}

func printUser(a *app, u *dto.User) {
	tw := a.table()
	fmt.Fprintf(tw, "id:\t%d\n", u.ID)
	fmt.Fprintf(tw, "name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "status:\t%s\n", activeLabel(u.IsActive))
	_ = tw.Flush()
}
