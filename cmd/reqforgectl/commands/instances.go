package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/pkg/structures"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Manage downstream service instances",
}

var (
	instanceType        string
	instanceName        string
	instanceURL         string
	instanceAPIKey      string
	instanceTier        string
	instanceCategory    string
	instanceSettings    string
	instanceMovieDefault bool
	instanceTvDefault   bool
	instance4KDefault   bool
)

var instancesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a Radarr or Sonarr instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !structures.ServiceType(instanceType).Valid() {
			return fmt.Errorf("type must be radarr or sonarr")
		}
		if !structures.QualityTier(instanceTier).Valid() {
			return fmt.Errorf("quality tier must be standard, 4k, or hdr")
		}
		if instanceName == "" || instanceURL == "" || instanceAPIKey == "" {
			return fmt.Errorf("name, url, and api-key are required")
		}
		if instanceSettings != "" && !json.Valid([]byte(instanceSettings)) {
			return fmt.Errorf("settings must be a JSON object")
		}

		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		id := uuid.NewString()
		arg := repository.CreateArrServiceParams{
			ID:             id,
			Type:           instanceType,
			Name:           instanceName,
			BaseUrl:        instanceURL,
			ApiKey:         instanceAPIKey,
			Enabled:        true,
			IsDefaultMovie: instanceMovieDefault,
			IsDefaultTv:    instanceTvDefault,
			Is4kDefault:    instance4KDefault,
			Is4k:           instanceTier == structures.QualityTier4K.String(),
			QualityTier:    instanceTier,
		}
		if instanceCategory != "" {
			arg.InstanceCategory.String = instanceCategory
			arg.InstanceCategory.Valid = true
		}
		if instanceSettings != "" {
			arg.Settings.String = instanceSettings
			arg.Settings.Valid = true
		}

		if err := queries.CreateArrService(cmd.Context(), arg); err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
		}
		fmt.Printf("created %s instance %s (%s)\n", instanceType, instanceName, id)
		return nil
	},
}

var instancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		instances, err := queries.GetAllArrServices(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list instances: %w", err)
		}

		for _, instance := range instances {
			state := "disabled"
			if instance.Enabled {
				state = "enabled"
			}
			defaults := ""
			if instance.IsDefaultMovie {
				defaults += " [default-movie]"
			}
			if instance.IsDefaultTv {
				defaults += " [default-tv]"
			}
			if instance.Is4kDefault {
				defaults += " [4k-default]"
			}
			fmt.Printf("%-36s %-7s %-9s %-8s %s%s\n",
				instance.ID, instance.Type, state, instance.QualityTier, instance.Name, defaults)
		}
		return nil
	},
}

var instancesEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setInstanceEnabled(cmd, args[0], true) },
}

var instancesDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setInstanceEnabled(cmd, args[0], false) },
}

func setInstanceEnabled(cmd *cobra.Command, id string, enabled bool) error {
	queries, closeDB, err := openQueries(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := queries.SetArrServiceEnabled(cmd.Context(), repository.SetArrServiceEnabledParams{
		Enabled: enabled,
		ID:      id,
	}); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	fmt.Printf("instance %s enabled=%v\n", id, enabled)
	return nil
}

var instancesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an instance with no requests pointing at it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		// An instance may be disabled but never deleted while requests
		// still reference it.
		count, err := queries.CountRequestsByInstance(cmd.Context(), sql.NullString{String: args[0], Valid: true})
		if err != nil {
			return fmt.Errorf("failed to check references: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("instance %s is referenced by %d requests; disable it instead", args[0], count)
		}

		if err := queries.DeleteArrService(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete instance: %w", err)
		}
		fmt.Printf("deleted instance %s\n", args[0])
		return nil
	},
}

var instancesTestCmd = &cobra.Command{
	Use:   "test <id>",
	Short: "Check an instance's system status endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, closeDB, err := openQueries(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		instance, err := queries.GetArrServiceByID(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("instance not found: %w", err)
		}

		switch structures.ServiceType(instance.Type) {
		case structures.ServiceTypeRadarr:
			status, err := radarr.New(queries).SystemStatus(cmd.Context(), instance)
			if err != nil {
				return fmt.Errorf("radarr unreachable: %w", err)
			}
			fmt.Printf("%s: %s %s\n", instance.Name, status.AppName, status.Version)
		case structures.ServiceTypeSonarr:
			status, err := sonarr.New(queries).SystemStatus(cmd.Context(), instance)
			if err != nil {
				return fmt.Errorf("sonarr unreachable: %w", err)
			}
			fmt.Printf("%s: %s %s\n", instance.Name, status.AppName, status.Version)
		default:
			return fmt.Errorf("unknown instance type %s", instance.Type)
		}
		return nil
	},
}

func init() {
	instancesAddCmd.Flags().StringVar(&instanceType, "type", "", "instance type: radarr or sonarr")
	instancesAddCmd.Flags().StringVar(&instanceName, "name", "", "display name")
	instancesAddCmd.Flags().StringVar(&instanceURL, "url", "", "base URL, e.g. http://radarr:7878")
	instancesAddCmd.Flags().StringVar(&instanceAPIKey, "api-key", "", "instance API key")
	instancesAddCmd.Flags().StringVar(&instanceTier, "tier", "standard", "quality tier: standard, 4k, hdr")
	instancesAddCmd.Flags().StringVar(&instanceCategory, "category", "", "optional category tag")
	instancesAddCmd.Flags().StringVar(&instanceSettings, "settings", "", "optional settings JSON blob")
	instancesAddCmd.Flags().BoolVar(&instanceMovieDefault, "default-movie", false, "make this the default movie instance")
	instancesAddCmd.Flags().BoolVar(&instanceTvDefault, "default-tv", false, "make this the default TV instance")
	instancesAddCmd.Flags().BoolVar(&instance4KDefault, "default-4k", false, "make this the default 4k instance")

	instancesCmd.AddCommand(instancesAddCmd)
	instancesCmd.AddCommand(instancesListCmd)
	instancesCmd.AddCommand(instancesEnableCmd)
	instancesCmd.AddCommand(instancesDisableCmd)
	instancesCmd.AddCommand(instancesDeleteCmd)
	instancesCmd.AddCommand(instancesTestCmd)
	rootCmd.AddCommand(instancesCmd)
}
