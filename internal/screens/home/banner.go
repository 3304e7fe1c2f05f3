package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcycle/internal/ui/theme"
)

const bannerArt = `
 ┌─┐ ┬ ┬ ┬ ┌─┐ ┌─┐ ┬ ┬ ┌─┐ ┬   ┌─┐
 │─┼┐│ │ │ ┌─┘ │   └┬┘ │   │   ├┤
 └─┘└└─┘ ┴ └─┘ └─┘  ┴  └─┘ ┴─┘ └─┘`

const bannerCompact = "Q U I Z C Y C L E"

// RenderBanner returns the banner styled in the primary color. Uses a
// compact fallback for narrow widths.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 40 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
