package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/clycites/clygate/internal/adapters/authapi"
	"github.com/clycites/clygate/internal/adapters/tokens"
	"github.com/clycites/clygate/internal/guard"
)

// runWhoami validates the stored token against the accounts API the same
// way a frontend session guard would, then reports the settled state.
func runWhoami(cmdCtx *commandContext, _ []string) error {
	store, err := tokens.NewFileStore("")
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}

	client, err := authapi.NewClient(cmdCtx.Config.Auth.Guard.AccountsURL)
	if err != nil {
		return fmt.Errorf("build accounts client: %w", err)
	}

	g, err := guard.New(guard.Options{
		Validator: client,
		Tokens:    store,
		Timeout:   cmdCtx.Config.Auth.Guard.ValidateTimeout,
	})
	if err != nil {
		return err
	}

	state, err := g.Check(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}

	switch state {
	case guard.StateAuthenticated:
		user, _ := g.User()
		return writef(os.Stdout, "authenticated as %s (%s, role %s)\n", user.Email, user.ID, user.Role)
	case guard.StateUnauthenticated:
		return writef(os.Stdout, "not authenticated\n")
	default:
		return writef(os.Stdout, "state: %s\n", state)
	}
}

func runToken(cmdCtx *commandContext, args []string) error {
	store, err := tokens.NewFileStore("")
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}

	if len(args) == 0 {
		return errors.New("usage: token set <value> | token clear")
	}

	switch args[0] {
	case "set":
		if len(args) != 2 || args[1] == "" {
			return errors.New("usage: token set <value>")
		}
		if err := store.SetToken(cmdCtx.Ctx, args[1]); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		return writef(os.Stdout, "token stored at %s\n", store.Path())

	case "clear":
		if err := store.Clear(cmdCtx.Ctx); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		return writef(os.Stdout, "token cleared\n")

	default:
		return fmt.Errorf("unknown token subcommand %q", args[0])
	}
}
