package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/services"
	"github.com/veyronhq/reqforge/pkg/permissions"
)

var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "Manage per-user permission grants",
}

var permsGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <permission>",
	Short: "Grant a permission flag to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !permissions.IsValidPermission(args[1]) {
			return fmt.Errorf("unknown permission %q", args[1])
		}

		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := queries.AssignUserPermission(cmd.Context(), repository.AssignUserPermissionParams{
			UserID:       args[0],
			PermissionID: args[1],
		}); err != nil {
			return fmt.Errorf("failed to grant permission: %w", err)
		}
		fmt.Printf("granted %s to %s\n", args[1], args[0])
		return nil
	},
}

var permsRevokeCmd = &cobra.Command{
	Use:   "revoke <user-id> <permission>",
	Short: "Revoke a permission flag from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := queries.RevokeUserPermission(cmd.Context(), repository.RevokeUserPermissionParams{
			UserID:       args[0],
			PermissionID: args[1],
		}); err != nil {
			return fmt.Errorf("failed to revoke permission: %w", err)
		}
		fmt.Printf("revoked %s from %s\n", args[1], args[0])
		return nil
	},
}

var permsListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's permission grants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		grants, err := queries.GetUserPermissions(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list permissions: %w", err)
		}
		if len(grants) == 0 {
			fmt.Println("no explicit grants")
			return nil
		}
		for _, grant := range grants {
			fmt.Printf("%-40s %s\n", grant.PermissionID, permissions.GetPermissionDescription(grant.PermissionID))
		}
		return nil
	},
}

var permsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show which permissions new users receive by default",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		defaults := services.NewDynamicDefaultPermissionsService(queries)
		settings, err := defaults.GetAllDefaultPermissionSettings(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list defaults: %w", err)
		}
		for _, flag := range permissions.AllPermissions {
			state := "off"
			if settings[flag] {
				state = "on"
			}
			fmt.Printf("%-40s %s\n", flag, state)
		}
		return nil
	},
}

var permsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <permission> <on|off>",
	Short: "Toggle whether new users receive a permission by default",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := args[1] == "on"
		if !enabled && args[1] != "off" {
			return fmt.Errorf("second argument must be on or off")
		}

		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		defaults := services.NewDynamicDefaultPermissionsService(queries)
		if err := defaults.UpdateDefaultPermission(cmd.Context(), args[0], enabled); err != nil {
			return fmt.Errorf("failed to update default: %w", err)
		}
		fmt.Printf("default %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	permsCmd.AddCommand(permsGrantCmd)
	permsCmd.AddCommand(permsRevokeCmd)
	permsCmd.AddCommand(permsListCmd)
	permsCmd.AddCommand(permsDefaultsCmd)
	permsCmd.AddCommand(permsSetDefaultCmd)
	rootCmd.AddCommand(permsCmd)
}
