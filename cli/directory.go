// ABOUTME: Read-only listing subcommands for users, catalogs, schemas and tables
// ABOUTME: All reads go through the TTL cache
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/harperreed/ucadmin/models"
	"github.com/spf13/cobra"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List workspace users and groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			principals, err := app.Cached.ListPrincipals(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list principals: %w", err)
			}

			return render(cmd.OutOrStdout(), opts.output, principals, func(w io.Writer) error {
				t := newTable("KIND", "NAME", "DISPLAY NAME")
				for _, u := range principals.Users {
					t.add("user", u.UserName, orDash(u.DisplayName))
				}
				for _, g := range principals.Groups {
					t.add("group", g.DisplayName, orDash(g.ID))
				}
				if err := t.write(w); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d users, %d groups\n", len(principals.Users), len(principals.Groups))
				return nil
			})
		},
	}
}

func newCatalogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			catalogs, err := app.Cached.ListCatalogs(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list catalogs: %w", err)
			}

			return render(cmd.OutOrStdout(), opts.output, catalogs, func(w io.Writer) error {
				if len(catalogs) == 0 {
					fmt.Fprintln(w, "No catalogs found.")
					return nil
				}
				t := newTable("NAME", "OWNER", "CREATED")
				for _, c := range catalogs {
					t.add(c.Name, orDash(c.Owner), formatTime(c.CreatedAt))
				}
				if err := t.write(w); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d catalog(s)\n", len(catalogs))
				return nil
			})
		},
	}
}

func newSchemasCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas <catalog>",
		Short: "List the schemas of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			schemas, err := app.Cached.ListSchemas(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list schemas: %w", err)
			}

			return render(cmd.OutOrStdout(), opts.output, schemas, func(w io.Writer) error {
				if len(schemas) == 0 {
					fmt.Fprintf(w, "No schemas found in %s.\n", args[0])
					return nil
				}
				t := newTable("NAME", "FULL NAME", "OWNER")
				for _, s := range schemas {
					t.add(s.Name, s.FullName(), orDash(s.Owner))
				}
				if err := t.write(w); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d schema(s)\n", len(schemas))
				return nil
			})
		},
	}
}

func newTablesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <catalog> <schema>",
		Short: "List the tables of a schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			tables, err := app.Cached.ListTables(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to list tables: %w", err)
			}

			return render(cmd.OutOrStdout(), opts.output, tables, func(w io.Writer) error {
				if len(tables) == 0 {
					fmt.Fprintf(w, "No tables found in %s.%s.\n", args[0], args[1])
					return nil
				}
				t := newTable("NAME", "TYPE", "FULL NAME")
				for _, tb := range tables {
					t.add(tb.Name, tableType(tb), tb.FullName())
				}
				if err := t.write(w); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d table(s)\n", len(tables))
				return nil
			})
		},
	}
}

func tableType(t models.Table) string {
	if t.Type == "" {
		return models.DefaultTableType
	}
	return t.Type
}
