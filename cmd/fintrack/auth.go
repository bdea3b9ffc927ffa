package main

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func runSignup(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("signup", e.err)
	var in core.SignupInput
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Nickname, "nickname", "", "display name")
	fs.StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if in.Password == "" {
		p, err := e.readSecret("Password: ")
		if err != nil {
			return err
		}
		in.Password = p
	}
	if err := in.Validate(); err != nil {
		return err
	}

	u, err := e.app.Auth.Signup(ctx, in)
	if err != nil {
		return err
	}
	e.app.Router.Redirect(ctx, "/")
	fmt.Fprintf(e.out, "Welcome, %s. You are logged in.\n", u.DisplayName())
	return nil
}

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("login", e.err)
	var in core.LoginInput
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if in.Password == "" {
		p, err := e.readSecret("Password: ")
		if err != nil {
			return err
		}
		in.Password = p
	}
	if err := in.Validate(); err != nil {
		return err
	}

	u, err := e.app.Auth.Login(ctx, in)
	if err != nil {
		return err
	}
	e.app.Router.Redirect(ctx, "/")
	fmt.Fprintf(e.out, "Logged in as %s.\n", u.DisplayName())
	return nil
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if !e.app.Auth.IsLoggedIn() {
		fmt.Fprintln(e.out, "Not logged in.")
		return nil
	}
	if err := e.app.Auth.Logout(ctx); err != nil {
		return err
	}
	e.app.Router.Redirect(ctx, "/login")
	fmt.Fprintln(e.out, "Logged out.")
	return nil
}

func runWhoami(_ context.Context, e *env, _ []string) error {
	u := e.app.Auth.User()
	if u == nil {
		return errLoginRequired
	}
	fmt.Fprintf(e.out, "%s <%s>", u.DisplayName(), u.Email)
	if u.Role != "" {
		fmt.Fprintf(e.out, " role=%s", u.Role)
	}
	if exp, ok := e.app.Auth.TokenExpiry(); ok {
		fmt.Fprintf(e.out, " token expires %s", exp.Local().Format(time.RFC3339))
	}
	fmt.Fprintln(e.out)
	return nil
}
