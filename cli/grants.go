// ABOUTME: grant and revoke subcommands
// ABOUTME: Each invocation sends exactly one permissions update
package cli

import (
	"fmt"
	"io"

	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/spf13/cobra"
)

type grantFlags struct {
	principal  string
	objectType string
	objectName string
	privilege  string
}

func (f *grantFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.principal, "principal", "", "User name or group display name")
	cmd.Flags().StringVar(&f.objectType, "type", string(models.SecurableCatalog), "Object type (CATALOG, SCHEMA, TABLE, ...)")
	cmd.Flags().StringVar(&f.objectName, "name", "", "Fully qualified object name")
	cmd.Flags().StringVar(&f.privilege, "privilege", "", "Privilege to change")
}

func (f *grantFlags) empty() bool {
	return f.principal == "" && f.objectName == "" && f.privilege == ""
}

func newGrantCmd(opts *rootOptions, verb string) *cobra.Command {
	var flags grantFlags
	action := models.ActionGrant
	short := "Grant a privilege on an object to a user or group"
	if verb == "revoke" {
		action = models.ActionRevoke
		short = "Revoke a privilege on an object from a user or group"
	}

	cmd := &cobra.Command{
		Use:   verb,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}

			result, err := app.Manager.Apply(cmd.Context(), grants.Request{
				Principal:  flags.principal,
				ObjectType: flags.objectType,
				ObjectName: flags.objectName,
				Privilege:  flags.privilege,
				Action:     string(action),
			})
			if err != nil {
				return fmt.Errorf("failed to %s access: %w", verb, err)
			}

			return render(cmd.OutOrStdout(), opts.output, result, func(w io.Writer) error {
				fmt.Fprintf(w, "✓ %s\n", result.Message)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}
