package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-inventory"
	"github.com/goliatone/go-inventory/activitymap"
	"github.com/goliatone/go-print"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and the default warehouse",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return inventory.Migrate(cmd.Context(), a.db, a.GetLogger("migrate"))
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [fixtures.yml]",
	Short: "Load fixtures, the bundled demo data when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var r io.ReadCloser
		if len(args) == 1 {
			r, err = os.Open(args[0])
		} else {
			r, err = inventory.GetFixturesFS().Open(inventory.DefaultFixturesPath)
		}
		if err != nil {
			return err
		}
		defer r.Close()

		fx, err := inventory.ParseFixtures(r)
		if err != nil {
			return err
		}

		report, err := inventory.Seed(cmd.Context(), a.repo, fx, a.GetLogger("seed"))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(report))
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with role and approval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		accounts, err := a.accounts().ListAccounts(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tROLE\tSTATUS\tWAREHOUSES")
		for _, u := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", u.Email, u.Role, u.ApprovalStatus, len(u.AssignedWarehouses))
		}
		return w.Flush()
	},
}

var toggleReason string

var usersToggleApprovalCmd = &cobra.Command{
	Use:   "toggle-approval <email>",
	Short: "Approve a pending account or revoke an approved one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.accounts().ToggleApproval(cmd.Context(), inventory.ToggleApprovalMessage{
			Email:  args[0],
			Reason: toggleReason,
			Actor:  cliActor(),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.ApprovalStatus)
		return nil
	},
}

func init() {
	usersToggleApprovalCmd.Flags().StringVar(&toggleReason, "reason", "", "reason stored with the transition")
	usersCmd.AddCommand(usersListCmd, usersToggleApprovalCmd)
}

func (a *app) accounts() *inventory.AccountsHandler {
	return inventory.NewAccountsHandler(a.repo, a.cfg.SuperAdminEmail,
		inventory.WithHandlerLogger(a.GetLogger("commands")),
		inventory.WithHandlerActivitySink(activitymap.LoggerSink(a.GetLogger("activity"), activitymap.WithActorFallback("cli"))),
	)
}

func cliActor() inventory.ActorRef {
	name := os.Getenv("USER")
	if name == "" {
		name = "cli"
	}
	return inventory.ActorRef{ID: name, Email: name, Type: "cli"}
}
