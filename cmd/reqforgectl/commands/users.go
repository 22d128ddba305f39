package commands

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/services"
	"github.com/veyronhq/reqforge/internal/services/auth"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/utils"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var (
	userUsername string
	userEmail    string
	userOwner    bool
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a local user and print its generated password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userUsername == "" {
			return fmt.Errorf("username is required")
		}

		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		password, err := utils.GeneratePassword(16)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user, err := queries.CreateLocalUser(cmd.Context(), repository.CreateLocalUserParams{
			ID:           uuid.NewString(),
			Username:     strings.ToLower(userUsername),
			Email:        sql.NullString{String: userEmail, Valid: userEmail != ""},
			PasswordHash: sql.NullString{String: string(hash), Valid: true},
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		// New accounts start from the role defaults; owner is an explicit
		// extra grant.
		defaults := services.NewDynamicDefaultPermissionsService(queries)
		if err := defaults.AssignDefaultPermissions(cmd.Context(), user.ID); err != nil {
			return fmt.Errorf("user created but default grants failed: %w", err)
		}
		if userOwner {
			if err := queries.AssignUserPermission(cmd.Context(), repository.AssignUserPermissionParams{
				UserID:       user.ID,
				PermissionID: permissions.Owner,
			}); err != nil {
				return fmt.Errorf("user created but owner grant failed: %w", err)
			}
		}

		fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
		fmt.Printf("password: %s\n", password)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		users, err := queries.GetAllUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		for _, user := range users {
			email := "-"
			if user.Email.Valid && user.Email.String != "" {
				email = user.Email.String
			}
			fmt.Printf("%-36s %-24s %-12s %s\n", user.ID, user.Username, user.UserType, email)
		}
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user with no requests referencing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		// Deleting a user is blocked while any request references it, as
		// requester or approver; cascade deletion is not used.
		referencing, err := queries.FindRequests(cmd.Context(), repository.RequestFilter{UserID: args[0], Limit: 1})
		if err != nil {
			return fmt.Errorf("failed to check references: %w", err)
		}
		if len(referencing) > 0 {
			return fmt.Errorf("user %s still has requests; delete or reassign them first", args[0])
		}
		all, err := queries.GetAllRequests(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to check references: %w", err)
		}
		for _, request := range all {
			if request.ApproverID.Valid && request.ApproverID.String == args[0] {
				return fmt.Errorf("user %s approved existing requests; delete or reassign them first", args[0])
			}
		}

		if err := queries.DeleteUserPermissions(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete user permissions: %w", err)
		}
		if err := queries.DeleteUser(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		fmt.Printf("deleted user %s\n", args[0])
		return nil
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a session token for a user",
	Long: `Issue a signed session token for an existing user. The identity-provider
login flow lives outside this service; this is the operator's way to mint a
token for API access. Requires REQFORGE_JWT_SECRET.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("REQFORGE_JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("REQFORGE_JWT_SECRET is not set")
		}

		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := queries.GetUserByUsername(cmd.Context(), strings.ToLower(args[0]))
		if err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		isOwner, err := queries.CheckUserPermission(cmd.Context(), repository.CheckUserPermissionParams{
			UserID:       user.ID,
			PermissionID: permissions.Owner,
		})
		if err != nil {
			return fmt.Errorf("failed to check owner grant: %w", err)
		}

		authService := auth.New(secret, "localhost", false)
		token, expires, err := authService.CreateAccessToken(user.ID, user.Username, "", isOwner)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Printf("token: %s\n", token)
		fmt.Printf("expires: %s\n", expires.Format(time.RFC3339))
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userUsername, "username", "", "username for the new account")
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "optional email address")
	usersAddCmd.Flags().BoolVar(&userOwner, "owner", false, "grant the irrevocable owner permission")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(tokenCmd)
}
