// Package theme defines color themes for the cdash TUI dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceBright lipgloss.Color // Selected row
	Border        lipgloss.Color // Subtle borders
	BorderAccent  lipgloss.Color // Accent-colored borders for focus states
	TextDim       lipgloss.Color // Lowest contrast text (hints, disabled)
	TextMuted     lipgloss.Color // Secondary text (labels, metadata)
	TextPrimary   lipgloss.Color // Primary content text
	Accent        lipgloss.Color // Primary accent (links, active states)
	AccentBright  lipgloss.Color // Brighter accent for emphasis

	// Chart and status roles
	Contractual lipgloss.Color
	Measured    lipgloss.Color
	School      lipgloss.Color
	Pending     lipgloss.Color
	InProgress  lipgloss.Color
	Done        lipgloss.Color
	Warn        lipgloss.Color
}

// Active is the currently selected theme.
var Active = Brand

// Brand is the default theme: navy surfaces with a sand accent.
var Brand = Theme{
	Name:          "brand",
	Background:    lipgloss.Color("#15202E"),
	Surface:       lipgloss.Color("#1B293B"),
	SurfaceBright: lipgloss.Color("#233952"),
	Border:        lipgloss.Color("#33465F"),
	BorderAccent:  lipgloss.Color("#E5D0B7"),
	TextDim:       lipgloss.Color("#52627A"),
	TextMuted:     lipgloss.Color("#8E9DB3"),
	TextPrimary:   lipgloss.Color("#F2F4F7"),
	Accent:        lipgloss.Color("#E5D0B7"),
	AccentBright:  lipgloss.Color("#F3E6D6"),
	Contractual:   lipgloss.Color("#4B709D"),
	Measured:      lipgloss.Color("#E5D0B7"),
	School:        lipgloss.Color("#6C819E"),
	Pending:       lipgloss.Color("#E5D0B7"),
	InProgress:    lipgloss.Color("#4B709D"),
	Done:          lipgloss.Color("#7FBF9B"),
	Warn:          lipgloss.Color("#D99A5B"),
}

// FlexokiDark is a warm, paper-inspired dark theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	Contractual:   lipgloss.Color("#4385BE"),
	Measured:      lipgloss.Color("#D0A215"),
	School:        lipgloss.Color("#8B7EC8"),
	Pending:       lipgloss.Color("#D0A215"),
	InProgress:    lipgloss.Color("#4385BE"),
	Done:          lipgloss.Color("#879A39"),
	Warn:          lipgloss.Color("#DA702C"),
}

// CatppuccinMocha is a warm pastel theme with soft, soothing colors.
var CatppuccinMocha = Theme{
	Name:          "catppuccin-mocha",
	Background:    lipgloss.Color("#1E1E2E"),
	Surface:       lipgloss.Color("#313244"),
	SurfaceBright: lipgloss.Color("#585B70"),
	Border:        lipgloss.Color("#585B70"),
	BorderAccent:  lipgloss.Color("#89B4FA"),
	TextDim:       lipgloss.Color("#6C7086"),
	TextMuted:     lipgloss.Color("#A6ADC8"),
	TextPrimary:   lipgloss.Color("#CDD6F4"),
	Accent:        lipgloss.Color("#89B4FA"),
	AccentBright:  lipgloss.Color("#B4D0FB"),
	Contractual:   lipgloss.Color("#89B4FA"),
	Measured:      lipgloss.Color("#F9E2AF"),
	School:        lipgloss.Color("#CBA6F7"),
	Pending:       lipgloss.Color("#F9E2AF"),
	InProgress:    lipgloss.Color("#89B4FA"),
	Done:          lipgloss.Color("#A6E3A1"),
	Warn:          lipgloss.Color("#FAB387"),
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	Contractual:   lipgloss.Color("4"),
	Measured:      lipgloss.Color("3"),
	School:        lipgloss.Color("5"),
	Pending:       lipgloss.Color("3"),
	InProgress:    lipgloss.Color("4"),
	Done:          lipgloss.Color("2"),
	Warn:          lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{Brand, FlexokiDark, CatppuccinMocha, Terminal}

// ByName returns a theme by its name, defaulting to Brand.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return Brand
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// StatusColor maps a canonical status label to its theme color.
func (t Theme) StatusColor(status string) lipgloss.Color {
	switch status {
	case "Pendente":
		return t.Pending
	case "Em andamento":
		return t.InProgress
	case "Concluído":
		return t.Done
	}
	return t.TextMuted
}
