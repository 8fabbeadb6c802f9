package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tabx/internal/autoscroll"
	"github.com/desertthunder/tabx/internal/models"
)

// songsLoadedMsg reports a finished [Session.LoadSongs]; the data lives on the session.
type songsLoadedMsg struct{ err error }

type chordsLoadedMsg struct{ err error }

type songSavedMsg struct {
	song models.Song
	err  error
}

type songDeletedMsg struct {
	id  int64
	err error
}

type searchDoneMsg struct {
	query string
	err   error
}

// scrollTickMsg carries an autoscroll callback onto the bubbletea event loop.
type scrollTickMsg struct {
	fire func()
}

// programScheduler implements [autoscroll.Scheduler] by delivering timer fires as messages, so the
// controller only ever ticks inside Update.
type programScheduler struct {
	send func(tea.Msg)
}

var _ autoscroll.Scheduler = programScheduler{}

func (s programScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, func() { s.send(scrollTickMsg{fire: f}) })
	return func() { t.Stop() }
}
