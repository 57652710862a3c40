// Package termui renders drape for the terminal: a lipgloss result card,
// the history list and an interactive bubbletea chat.
package termui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/drape/internal/history"
	"github.com/hpungsan/drape/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1)
	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Underline(true)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// Card renders a result view as a bordered terminal card.
func Card(v render.View) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s skin tone", v.SkinTone)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s · %s", v.Gender, v.Date, v.RecordID)))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Casual"))
	b.WriteString("\n")
	b.WriteString(v.OutfitCasual)
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Formal"))
	b.WriteString("\n")
	b.WriteString(v.OutfitFormal)
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Colours to wear"))
	b.WriteString("\n")
	swatches := make([]string, 0, len(v.Swatches))
	for _, s := range v.Swatches {
		swatches = append(swatches, Swatch(s))
	}
	b.WriteString(strings.Join(swatches, "  "))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Colours to avoid"))
	b.WriteString("\n")
	chips := make([]string, 0, len(v.Avoid))
	for _, c := range v.Avoid {
		chips = append(chips, chipStyle.Render(c.Label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Shopping"))
	b.WriteString("\n")
	if v.EmptyShopping != "" {
		b.WriteString(mutedStyle.Render(v.EmptyShopping))
		b.WriteString("\n")
	}
	for _, l := range v.Links {
		b.WriteString("• ")
		b.WriteString(l.Label)
		b.WriteString("\n  ")
		b.WriteString(linkStyle.Render(l.Href))
		b.WriteString("\n")
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Swatch renders one colour token. Hex tokens get a filled block in that
// colour; anything else is shown as text only.
func Swatch(s render.Swatch) string {
	block := "  "
	if strings.HasPrefix(s.Color, "#") {
		block = lipgloss.NewStyle().Background(lipgloss.Color(s.Color)).Render("  ")
	}
	return block + " " + s.Tooltip
}

// History renders the history rows as a numbered list.
func History(rows []history.Row) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No analyses yet.")
	}
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%2d. %s  %s  %s\n", i+1, r.Label, mutedStyle.Render(r.Date), mutedStyle.Render(r.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Warning renders a user-visible warning.
func Warning(msg string) string {
	return warnStyle.Render("! " + msg)
}
