package memory

import "github.com/forgeloop/toolwright/pkg/build"

// UserPreferences are per-user build defaults. They are loaded with
// DefaultPreferences when absent or unreadable.
type UserPreferences struct {
	UserID                string           `json:"user_id"`
	PreferredTechnologies []string         `json:"preferred_technologies"`
	ComplexityPreference  build.Complexity `json:"complexity_preference"`
	DeploymentPreference  string           `json:"deployment_preference"`
	UIStack               string           `json:"ui_stack"`
	BackendStack          string           `json:"backend_stack"`
	TestingRigor          string           `json:"testing_rigor"`
}

// DefaultPreferences is the documented safe default when a user has never
// saved preferences.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:                userID,
		PreferredTechnologies: []string{},
		ComplexityPreference:  build.ComplexityMedium,
		DeploymentPreference:  "static",
		UIStack:               "vanilla",
		BackendStack:          "",
		TestingRigor:          "standard",
	}
}
