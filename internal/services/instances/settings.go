package instances

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/veyronhq/reqforge/internal/db/repository"
)

// InstanceSettings is the typed view of an instance's nested settings blob.
// Fields absent from the blob fall back to the flat columns kept for
// backwards compatibility, then to documented defaults.
type InstanceSettings struct {
	Hostname            string `json:"hostname"`
	Port                int    `json:"port"`
	UseSSL              bool   `json:"use_ssl"`
	URLBase             string `json:"url_base"`
	QualityProfileID    int    `json:"quality_profile_id"`
	RootFolderPath      string `json:"root_folder_path"`
	MinimumAvailability string `json:"minimum_availability"` // movies only
	LanguageProfileID   int    `json:"language_profile_id"`  // series only
	MonitorPolicy       string `json:"monitor_policy"`
	EnableIntegration   *bool  `json:"enable_integration"`
	EnableAutoSearch    *bool  `json:"enable_auto_search"`
	Tags                []int  `json:"tags"`
}

// Integrate reports whether dispatching to this instance is enabled.
// Absent from the blob means enabled.
func (s InstanceSettings) Integrate() bool {
	return s.EnableIntegration == nil || *s.EnableIntegration
}

// AutoSearch reports whether adds should trigger an immediate search.
// Absent from the blob means enabled.
func (s InstanceSettings) AutoSearch() bool {
	return s.EnableAutoSearch == nil || *s.EnableAutoSearch
}

// EffectiveSettings decodes an instance's settings blob and resolves every
// field against the flat columns and defaults.
func EffectiveSettings(instance repository.ArrService) (InstanceSettings, error) {
	var settings InstanceSettings
	if instance.Settings.Valid && instance.Settings.String != "" {
		if err := json.Unmarshal([]byte(instance.Settings.String), &settings); err != nil {
			return settings, fmt.Errorf("instance %s has a malformed settings blob: %w", instance.Name, err)
		}
	}

	if settings.QualityProfileID == 0 && instance.QualityProfile != "" {
		if id, err := strconv.Atoi(instance.QualityProfile); err == nil {
			settings.QualityProfileID = id
		}
	}
	if settings.RootFolderPath == "" {
		settings.RootFolderPath = instance.RootFolderPath
	}
	if settings.MinimumAvailability == "" {
		settings.MinimumAvailability = instance.MinimumAvailability
	}
	if settings.MinimumAvailability == "" {
		settings.MinimumAvailability = "released"
	}
	if settings.MonitorPolicy == "" {
		settings.MonitorPolicy = "all"
	}
	return settings, nil
}
