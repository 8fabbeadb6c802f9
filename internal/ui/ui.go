package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tabx/internal/autoscroll"
	"github.com/desertthunder/tabx/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	ViewerView
	SearchView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  *Session
	sched    autoscroll.Scheduler
	view     ViewState
	width    int
	height   int
	songList list.Model
	viewer   *viewer
	search   searchPane
	notice   string
	help     help.Model
	keys     keyMap
}

// Option configures a [Model].
type Option func(*Model)

// WithScheduler sets the scheduler used by the autoscroll controller of every opened song.
func WithScheduler(s autoscroll.Scheduler) Option {
	return func(m *Model) { m.sched = s }
}

// NewModel creates a new TUI model over session.
func NewModel(ctx context.Context, session *Session, opts ...Option) *Model {
	songList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songList.Title = "Songs"
	songList.SetShowHelp(false)

	m := &Model{
		ctx:      ctx,
		session:  session,
		sched:    autoscroll.TimerScheduler{},
		view:     SongListView,
		songList: songList,
		search:   newSearchPane(),
		help:     help.New(),
		keys:     newKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, session *Session) error {
	m := NewModel(ctx, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.sched = programScheduler{send: p.Send}

	_, err := p.Run()
	if m.viewer != nil {
		m.viewer.scroll.Stop()
	}
	return err
}

// Init loads the song list and chord dictionary.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSongs(), m.loadChords())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-6)
		m.search.results.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case ViewerView:
			return m.handleViewerKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case scrollTickMsg:
		msg.fire()
		return m, nil

	case songsLoadedMsg:
		if msg.err != nil {
			m.notice = ""
			return m, nil
		}
		return m, m.songList.SetItems(songItems(m.session.Songs()))

	case chordsLoadedMsg:
		return m, nil

	case songSavedMsg:
		if msg.err != nil {
			m.notice = ""
			return m, nil
		}
		m.notice = fmt.Sprintf("Saved %s by %s", msg.song.Title, msg.song.Artist)
		return m, m.songList.SetItems(songItems(m.session.Songs()))

	case songDeletedMsg:
		if msg.err != nil {
			m.notice = ""
			return m, nil
		}
		m.notice = "Song deleted"
		return m, m.songList.SetItems(songItems(m.session.Songs()))

	case searchDoneMsg:
		m.search.query = msg.query
		if msg.err != nil {
			m.search.searching = false
			return m, nil
		}
		return m, m.search.setResults(m.session.Candidates())
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body, helpView string

	switch m.view {
	case SongListView:
		body = m.songList.View()
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.search, m.keys.remove, m.keys.reload, m.keys.quit})
	case ViewerView:
		body = m.viewer.render(m.height, m.session.Matcher())
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.toggle, m.keys.reset, m.keys.faster, m.keys.slower, m.keys.chord, m.keys.back})
	case SearchView:
		body = m.search.view()
		bindings := []key.Binding{m.keys.focus, m.keys.back}
		if m.search.focusResults {
			bindings = append([]key.Binding{m.keys.save}, bindings...)
		}
		helpView = m.help.ShortHelpView(bindings)
	}

	return strings.Join([]string{body, m.statusLine(), helpView}, "\n")
}

func (m *Model) statusLine() string {
	if err := m.session.Err(); err != nil {
		return styles.err.Render("Error: " + err.Error())
	}
	if m.session.Loading() {
		return styles.dim.Render("Loading…")
	}
	if m.notice != "" {
		return styles.ok.Render(m.notice)
	}
	return ""
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			m.openSong(item.song)
		}
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.notice = ""
		return m, m.search.open()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.deleteSong(item.song.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.session.ClearErr()
		return m, tea.Batch(m.loadSongs(), m.loadChords())
	}
	return m.updateActive(msg)
}

func (m *Model) handleViewerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.viewer
	switch {
	case key.Matches(msg, m.keys.quit):
		v.scroll.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		v.scroll.Stop()
		m.viewer = nil
		m.view = SongListView
	case key.Matches(msg, m.keys.toggle):
		v.scroll.Toggle()
	case key.Matches(msg, m.keys.reset):
		v.scroll.Reset()
	case key.Matches(msg, m.keys.faster):
		v.scroll.Faster()
	case key.Matches(msg, m.keys.slower):
		v.scroll.Slower()
	case key.Matches(msg, m.keys.chord):
		v.cycleChord()
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if m.search.focusResults {
			return m, m.search.toggleFocus()
		}
		m.search.input.Blur()
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.focus):
		return m, m.search.toggleFocus()
	case msg.Type == tea.KeyEnter:
		if song, ok := m.search.selected(); ok {
			return m, m.saveCandidate(song)
		}
		if m.search.focusResults {
			return m, nil
		}
		query := strings.TrimSpace(m.search.input.Value())
		if query == "" {
			m.notice = "Type something to search for"
			return m, nil
		}
		m.notice = ""
		m.search.searching = true
		return m, m.runSearch(query)
	}
	return m, m.search.update(msg)
}

func (m *Model) openSong(song models.Song) {
	m.viewer = newViewer(song, m.sched)
	m.view = ViewerView
	m.notice = ""
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case SearchView:
		cmd = m.search.update(msg)
	}
	return m, cmd
}

func (m *Model) loadSongs() tea.Cmd {
	return func() tea.Msg {
		return songsLoadedMsg{err: m.session.LoadSongs(m.ctx)}
	}
}

func (m *Model) loadChords() tea.Cmd {
	return func() tea.Msg {
		return chordsLoadedMsg{err: m.session.LoadChords(m.ctx)}
	}
}

func (m *Model) deleteSong(id int64) tea.Cmd {
	return func() tea.Msg {
		return songDeletedMsg{id: id, err: m.session.DeleteSong(m.ctx, id)}
	}
}

func (m *Model) saveCandidate(c models.CandidateSong) tea.Cmd {
	return func() tea.Msg {
		song, err := m.session.AddSong(m.ctx, c.ToCreate())
		return songSavedMsg{song: song, err: err}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{query: query, err: m.session.Search(m.ctx, query)}
	}
}
