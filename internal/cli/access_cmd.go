package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/guildboard/internal/domain"
	"github.com/soyeahso/guildboard/internal/store"
	"github.com/spf13/cobra"
)

func newAccessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Manage user access windows",
	}

	cmd.AddCommand(newAccessGetCmd())
	cmd.AddCommand(newAccessSetCmd())
	cmd.AddCommand(newAccessDeleteCmd())
	cmd.AddCommand(newAccessListCmd())

	return cmd
}

// openAccessStore opens the configured database. The caller closes the DB.
func openAccessStore() (*store.DB, *store.AccessStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(paths.DBPath(cfg.Store), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db, store.NewAccessStore(db), nil
}

func newAccessGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <username>",
		Short: "Show a user's access window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, access, err := openAccessStore()
			if err != nil {
				return err
			}
			defer db.Close()

			w, err := access.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Last payment: %s\n", formatDate(w.LastPayment))
			fmt.Fprintf(out, "Due date:     %s\n", formatDate(w.DueDate))
			fmt.Fprintf(out, "Active:       %v\n", w.Active(time.Now()))
			return nil
		},
	}
}

func newAccessSetCmd() *cobra.Command {
	var lastPayment, due string

	cmd := &cobra.Command{
		Use:   "set <username>",
		Short: "Create or replace a user's access window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w domain.AccessWindow
			var err error
			if w.LastPayment, err = parseDate(lastPayment, false); err != nil {
				return fmt.Errorf("--last-payment: %w", err)
			}
			if w.DueDate, err = parseDate(due, true); err != nil {
				return fmt.Errorf("--due: %w", err)
			}

			db, access, err := openAccessStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := access.Put(cmd.Context(), args[0], w); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set access for %s (due %s)\n", args[0], formatDate(w.DueDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&lastPayment, "last-payment", "", "last payment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&due, "due", "", "access due date (YYYY-MM-DD)")

	return cmd
}

func newAccessDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Remove a user's access window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, access, err := openAccessStore()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := access.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no access window for %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted access for %s\n", args[0])
			return nil
		},
	}
}

func newAccessListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all access windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, access, err := openAccessStore()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := access.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tLAST PAYMENT\tDUE\tACTIVE")
			now := time.Now()
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n",
					e.Username, formatDate(e.Window.LastPayment), formatDate(e.Window.DueDate), e.Window.Active(now))
			}
			return tw.Flush()
		},
	}
}

// parseDate reads a YYYY-MM-DD date in UTC. With endOfDay the result is the
// last second of that day, so a window stays active through its due date.
// Empty input yields nil.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Second)
	}
	return &d, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
