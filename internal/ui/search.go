package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/services"
)

// searchPane holds the query input and the candidate list of the generative search.
type searchPane struct {
	input        textinput.Model
	results      list.Model
	focusResults bool
	searching    bool
	query        string
}

func newSearchPane() searchPane {
	input := textinput.New()
	input.Placeholder = "artist, title or a lyric you remember"
	input.CharLimit = services.MaxQueryLength
	input.Prompt = "› "

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Candidates"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)

	return searchPane{input: input, results: results}
}

// open resets focus to the input.
func (p *searchPane) open() tea.Cmd {
	p.focusResults = false
	return p.input.Focus()
}

func (p *searchPane) setResults(found []models.CandidateSong) tea.Cmd {
	p.searching = false
	cmd := p.results.SetItems(candidateItems(found))
	p.results.ResetSelected()
	if len(found) > 0 {
		p.focusResults = true
		p.input.Blur()
	}
	return cmd
}

func (p *searchPane) toggleFocus() tea.Cmd {
	if p.focusResults || len(p.results.Items()) == 0 {
		p.focusResults = false
		return p.input.Focus()
	}
	p.focusResults = true
	p.input.Blur()
	return nil
}

// selected returns the highlighted candidate while the results have focus.
func (p *searchPane) selected() (models.CandidateSong, bool) {
	if !p.focusResults {
		return models.CandidateSong{}, false
	}
	item, ok := p.results.SelectedItem().(candidateItem)
	return item.song, ok
}

func (p *searchPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if p.focusResults {
		p.results, cmd = p.results.Update(msg)
	} else {
		p.input, cmd = p.input.Update(msg)
	}
	return cmd
}

func (p *searchPane) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Find songs"))
	b.WriteByte('\n')
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	switch {
	case p.searching:
		b.WriteString(styles.dim.Render("Searching…"))
	case p.query != "" && len(p.results.Items()) == 0:
		b.WriteString(styles.dim.Render("No songs found for " + p.query))
	case len(p.results.Items()) > 0:
		b.WriteString(p.results.View())
	}
	return b.String()
}
