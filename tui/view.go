package tui

import (
	"strings"

	"houseplants/binding"

	"github.com/charmbracelet/lipgloss"
)

var (
	leafColor  = lipgloss.AdaptiveColor{Light: "#2F6B45", Dark: "#8FD19E"}
	mutedColor = lipgloss.AdaptiveColor{Light: "#6B7A70", Dark: "#9AA8A0"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(leafColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(leafColor).
			Padding(0, 1)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(leafColor)
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(mutedColor)
	statusStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// Screen rows above the search box: title and a blank line.
const headerRows = 2

// View implements tea.Model. It also records where the box, dropdown and
// items landed so pointer presses can be resolved against them.
func (m *Model) View() string {
	boxWidth := min(m.width, 64) - 2
	if boxWidth < 20 {
		boxWidth = 20
	}

	title := titleStyle.Render("🌿 Houseplant Encyclopedia")
	box := boxStyle.Width(boxWidth).Render(m.input.View())

	sections := []string{title, "", box}
	regionHeight := lipgloss.Height(box)
	m.itemRows = map[int]string{}

	if m.open {
		if lines, items := m.dropdownLines(); len(lines) > 0 {
			dropdown := dropdownStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))

			// Item rows: below the box, past the dropdown's top border
			top := headerRows + regionHeight + 1
			for i, term := range items {
				if term != "" {
					m.itemRows[top+i] = term
				}
			}
			sections = append(sections, dropdown)
			regionHeight += lipgloss.Height(dropdown)
		}
	}

	m.dismiss.SetRegion(binding.Rect{
		X:      0,
		Y:      headerRows,
		Width:  lipgloss.Width(box),
		Height: regionHeight,
	})

	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, "", m.help.View(keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// dropdownLines renders the dropdown body line by line. items is parallel
// to lines and names the recent search on each line, "" elsewhere.
func (m *Model) dropdownLines() (lines []string, items []string) {
	view := binding.FilterDropdown(m.records, m.input.Value())

	add := func(line, term string) {
		lines = append(lines, line)
		items = append(items, term)
	}

	if m.history.Loading() {
		add(emptyStyle.Render("Loading recent searches..."), "")
	} else if view.State != binding.NoHistory {
		add(sectionStyle.Render("Recent Searches")+"  "+emptyStyle.Render("ctrl+l to clear"), "")
		if view.State == binding.NoMatch {
			add(emptyStyle.Render("No matching previous searches"), "")
		}
		for i, rec := range view.Items {
			if i == m.cursor {
				add(selectedStyle.Render("› 🕒 "+rec.Term), rec.Term)
			} else {
				add("  🕒 "+rec.Term, rec.Term)
			}
		}
	}

	if view.ShowResults {
		if len(lines) > 0 {
			add("", "")
		}
		add(sectionStyle.Render("Plant Results"), "")
		if m.searching {
			add(m.spinner.View()+" Searching...", "")
		} else {
			add(emptyStyle.Render("API integration coming soon..."), "")
		}
	}

	if view.State == binding.NoHistory && !view.ShowResults && !m.history.Loading() {
		add(emptyStyle.Render("No recent searches"), "")
		add(statusStyle.Render("Start typing to search for plants"), "")
	}

	return lines, items
}
