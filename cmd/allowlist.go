package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/restovibe/internal/allowlist"
	"github.com/example/restovibe/internal/auth"
	"github.com/example/restovibe/internal/config"
	"github.com/example/restovibe/internal/db"
	"github.com/example/restovibe/internal/migrate"
	"github.com/spf13/cobra"
)

func newAllowlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Manage the guest allow-list",
	}
	cmd.AddCommand(newAllowlistAddCmd())
	cmd.AddCommand(newAllowlistRemoveCmd())
	cmd.AddCommand(newAllowlistListCmd())
	cmd.AddCommand(newAllowlistGrantCmd())
	return cmd
}

// withStore opens the database, runs migrations and hands the allow-list
// store to fn.
func withStore(fn func(ctx context.Context, store *allowlist.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := migrate.Up(ctx, d); err != nil {
		return err
	}

	return fn(ctx, allowlist.NewStore(d))
}

func newAllowlistAddCmd() *cobra.Command {
	var email, name, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add an email to the allow-list, optionally with a password for direct login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *allowlist.Store) error {
				var hash string
				if password != "" {
					var err error
					hash, err = auth.HashPassword(password)
					if err != nil {
						return err
					}
				}
				if err := store.Add(ctx, email, name, hash); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "added %q to the allow-list\n", email)
				return nil
			})
		},
	}

	c.Flags().StringVar(&email, "email", "", "guest email")
	c.Flags().StringVar(&name, "name", "", "guest name")
	c.Flags().StringVar(&password, "password", "", "optional password for direct login")
	_ = c.MarkFlagRequired("email")
	return c
}

func newAllowlistRemoveCmd() *cobra.Command {
	var email string

	c := &cobra.Command{
		Use:   "remove",
		Short: "Remove an email from the allow-list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *allowlist.Store) error {
				if err := store.Remove(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "removed %q from the allow-list\n", email)
				return nil
			})
		},
	}

	c.Flags().StringVar(&email, "email", "", "guest email")
	_ = c.MarkFlagRequired("email")
	return c
}

func newAllowlistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List allow-listed emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *allowlist.Store) error {
				entries, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, e := range entries {
					login := "magic-link"
					if e.PasswordBcrypt != "" {
						login = "magic-link+password"
					}
					fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", e.Email, e.Name, login)
				}
				return nil
			})
		},
	}
}

func newAllowlistGrantCmd() *cobra.Command {
	var email string

	c := &cobra.Command{
		Use:   "grant",
		Short: "Approve a pending access request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *allowlist.Store) error {
				if err := store.Grant(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "granted access to %q\n", email)
				return nil
			})
		},
	}

	c.Flags().StringVar(&email, "email", "", "requesting email")
	_ = c.MarkFlagRequired("email")
	return c
}
