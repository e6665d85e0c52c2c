package tui

import (
	"strings"

	"github.com/theirongolddev/cdash/internal/config"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	BucketPath  string
	AdminKey    string
	ReadOnlyKey string
	Theme       string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		BucketPath: cfg.General.BucketPath,
		Theme:      cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the setup form. Answers are written into vals.
// Blank key fields keep whatever is already configured.
func NewSetupForm(vals *SetupValues, bucketDefault string) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}
	if vals.Theme == "" {
		vals.Theme = theme.Brand.Name
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cdash").
				Description("Dashboard of contracted works: values, measurements and deliverables.\nLet's set up a few things."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Bucket database").
				Description("SQLite file holding uploaded exports.").
				Placeholder(bucketDefault).
				Value(&vals.BucketPath),
			huh.NewInput().
				Title("Admin access key").
				Description("Required to upload. Blank keeps the current key.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.AdminKey),
			huh.NewInput().
				Title("Read-only access key").
				Description("Allows listing and reading exports.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.ReadOnlyKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeDracula())
}

// Apply copies the answers into cfg.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	if p := strings.TrimSpace(v.BucketPath); p != "" {
		cfg.General.BucketPath = p
	}
	if k := strings.TrimSpace(v.AdminKey); k != "" {
		cfg.Access.AdminKey = k
	}
	if k := strings.TrimSpace(v.ReadOnlyKey); k != "" {
		cfg.Access.ReadOnlyKey = k
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	return cfg
}
