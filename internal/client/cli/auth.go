package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/client/client"
	"github.com/dmitrijs2005/gophactivate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// credentials prompts for email and password. An empty email reuses the
// last one entered. The returned password must be wiped by the caller.
func (a *App) credentials() (string, []byte, error) {
	prompt := "Enter email"
	if a.email != "" {
		prompt = fmt.Sprintf("Enter email [%s]", a.email)
	}
	email, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		email = a.email
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register creates a pending account and reports when the code expires.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	reg, err := a.api.Register(ctx, email, string(password))
	if err != nil {
		a.report(err)
		return err
	}

	a.email = reg.Email
	printlnFn(fmt.Sprintf("Registered %s, status %s", reg.Email, reg.Status))
	if reg.Warning != "" {
		printlnFn("Warning:", reg.Warning)
		return nil
	}
	printlnFn(fmt.Sprintf("An activation code was sent, it expires in %s", a.remaining(reg.CodeExpiresAt)))
	return nil
}

// Activate submits a 4-digit code for the account.
func (a *App) Activate(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := getSimpleText(a.reader, "Enter activation code", os.Stdout)
	if err != nil {
		return err
	}

	act, err := a.api.Activate(ctx, email, string(password), code)
	if err != nil {
		a.report(err)
		return err
	}

	a.email = act.Email
	printlnFn(fmt.Sprintf("Account %s is %s", act.Email, act.Status))
	return nil
}

// Resend asks the server for a fresh code.
func (a *App) Resend(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.ResendActivation(ctx, email, string(password))
	if err != nil {
		a.report(err)
		return err
	}

	a.email = email
	if res.Warning != "" {
		printlnFn("Warning:", res.Warning)
		return nil
	}
	printlnFn(fmt.Sprintf("A new code was sent, it expires in %s", a.remaining(res.CodeExpiresAt)))
	return nil
}

func (a *App) remaining(expiresAt time.Time) time.Duration {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	d := expiresAt.Sub(now()).Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// report prints a user-facing explanation of err.
func (a *App) report(err error) {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server is unavailable, try again later")
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn("Invalid email or password")
	case errors.Is(err, client.ErrAlreadyRegistered):
		printlnFn("This email is already registered, use 'resend' to get a new code")
	case errors.Is(err, client.ErrAlreadyActive):
		printlnFn("This account is already activated")
	default:
		printlnFn("Error:", err.Error())
	}
}
