package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/clycites/clygate/internal/data"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
)

func runUsersList(cmdCtx *commandContext, _ []string) error {
	return withDB(cmdCtx, func(db *sql.DB) error {
		repo := data.NewUserRepo(db)
		users, err := repo.List(cmdCtx.Ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writef(tw, "ID\tEMAIL\tNAME\tROLE\tVERIFIED\n"); err != nil {
			return err
		}
		for _, u := range users {
			if err := writef(tw, "%s\t%s\t%s %s\t%s\t%t\n",
				u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.EmailVerified); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

// seedUsers is the fixed development data set: one user per role.
var seedUsers = []domainauth.User{
	{ID: "seed-admin", FirstName: "Alice", LastName: "Admin", Email: "admin@clycites.local", Role: domainauth.RoleAdmin, EmailVerified: true},
	{ID: "seed-editor", FirstName: "Evan", LastName: "Editor", Email: "editor@clycites.local", Role: domainauth.RoleEditor, EmailVerified: true},
	{ID: "seed-viewer", FirstName: "Vera", LastName: "Viewer", Email: "viewer@clycites.local", Role: domainauth.RoleViewer, EmailVerified: false},
}

func runUsersSeed(cmdCtx *commandContext, _ []string) error {
	return withDB(cmdCtx, func(db *sql.DB) error {
		repo := data.NewUserRepo(db)

		g, ctx := errgroup.WithContext(cmdCtx.Ctx)
		for _, u := range seedUsers {
			g.Go(func() error {
				if _, err := repo.Upsert(ctx, u); err != nil {
					return fmt.Errorf("seed user %s: %w", u.ID, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "seeded development users", "count", len(seedUsers))
		return nil
	})
}
