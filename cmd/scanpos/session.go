package main

import "context"

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		v, err := a.prompt("Email: ")
		if err != nil {
			return err
		}
		*email = v
	}
	if *password == "" {
		v, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = v
	}
	resp, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.creds.Save(a.cfg.CredentialsPath); err != nil {
		return err
	}
	a.printf("Logged in as %s (%s), session valid until %s\n",
		resp.User.Name, resp.User.Role, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	a.api.Logout()
	if err := a.creds.Save(a.cfg.CredentialsPath); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := a.role(); err != nil {
		return err
	}
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.printf("%s <%s>\nrole: %s\nid: %d\n", u.Name, u.Email, u.Role, u.ID)
	return nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func pageFooter(a *app, page, pages int, total int64) {
	a.printf("page %d/%d, %d total\n", page, max(pages, 1), total)
}

