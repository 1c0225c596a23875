package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/factshield/factshield/internal/service"
	"github.com/factshield/factshield/internal/session"
	"github.com/factshield/factshield/internal/storage/sqlstore"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and the admin account",
		Long: `Create the database schema and, if no user exists yet, the admin account.

The password comes from admin_password in private.yaml or from
FACTSHIELD_ADMIN_PASSWORD. When neither is set a random password is
generated and printed once. The account has to change its password on
first login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runSeed(ctx context.Context, opts *RootOptions, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	store, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	auth := service.NewAuth(store, session.NewStore(cfg.Public.SessionTTL), session.NewJwt(cfg.Private.SessionKey, cfg.Public.SessionTTL), &cfg.Public)
	created, generated, err := auth.EnsureAdmin(ctx, cfg.Public.AdminUsername, cfg.Private.AdminPassword)
	if err != nil {
		return err
	}

	if !created {
		fmt.Fprintln(out, "an account already exists, nothing to do")
		return nil
	}
	fmt.Fprintf(out, "created admin account %q\n", cfg.Public.AdminUsername)
	if generated != "" {
		fmt.Fprintf(out, "generated password: %s\n", generated)
	}
	fmt.Fprintln(out, "the password must be changed at first login")
	return nil
}
