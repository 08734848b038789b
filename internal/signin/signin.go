// Package signin authenticates the browser session on the crawled site.
package signin

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
)

// Selectors of the sign-in flow.
const (
	SelectorSignInLink = "a.nav__button-secondary"
	SelectorUsername   = "input[id=username]"
	SelectorPassword   = "input[id=password]"
	SelectorSubmit     = `button[aria-label="Sign in"]`
)

// ErrMissingCredentials is returned when the username or password is empty.
var ErrMissingCredentials = errors.New("username and password are required to sign in")

// Credentials identify the crawling account.
type Credentials struct {
	Username string
	Password string
}

// SignIn opens the site root, follows the sign-in link and submits the
// credentials, pausing between actions like a person typing would.
func SignIn(ctx context.Context, page browser.Page, routes model.Routes, pacer pacing.Controller, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrMissingCredentials
	}

	if err := page.Navigate(ctx, routes.Base()); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := pacing.Sleep(ctx, pacer); err != nil {
		return err
	}
	if err := page.Click(ctx, SelectorSignInLink); err != nil {
		return fmt.Errorf("sign in: open form: %w", err)
	}
	if err := page.WaitVisible(ctx, SelectorUsername); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := page.WaitVisible(ctx, SelectorPassword); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	fields := []struct {
		selector string
		value    string
	}{
		{SelectorUsername, creds.Username},
		{SelectorPassword, creds.Password},
	}
	for _, f := range fields {
		if err := pacing.Sleep(ctx, pacer); err != nil {
			return err
		}
		if err := page.TypeInto(ctx, f.selector, f.value); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
	}

	if err := pacing.Sleep(ctx, pacer); err != nil {
		return err
	}
	if err := page.Click(ctx, SelectorSubmit); err != nil {
		return fmt.Errorf("sign in: submit: %w", err)
	}
	return pacing.Sleep(ctx, pacer)
}
