package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobbeacon/internal/filter"
	"github.com/amishk599/jobbeacon/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Choice is one entry in the search picker.
type Choice struct {
	Label    string
	Criteria filter.Criteria
}

// Choices lists "all postings" followed by one entry per saved search.
func Choices(searches []model.SavedSearch) []Choice {
	out := []Choice{{Label: "All postings (no filter)"}}
	for _, s := range searches {
		out = append(out, Choice{
			Label:    fmt.Sprintf("%s (%s)", s.Name, describe(s)),
			Criteria: filter.FromSavedSearch(s),
		})
	}
	return out
}

func describe(s model.SavedSearch) string {
	parts := ""
	add := func(v string) {
		if v == "" || v == "any" {
			return
		}
		if parts != "" {
			parts += " · "
		}
		parts += v
	}
	add(s.Keywords)
	add(s.Location)
	add(s.ExperienceLevel)
	add(s.JobType)
	if parts == "" {
		return "anything"
	}
	return parts
}

type pickerModel struct {
	choices []Choice
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Browse postings · pick a search")
	s += "\n"

	for i, c := range m.choices {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+c.Label) + "\n"
		} else {
			s += pickerItemStyle.Render(c.Label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunPicker shows an interactive search selector.
// Returns the index of the chosen entry, or -1 if the user quit.
func RunPicker(choices []Choice) (int, error) {
	m := pickerModel{
		choices: choices,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
