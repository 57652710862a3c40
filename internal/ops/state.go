package ops

import (
	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/history"
	"github.com/hpungsan/drape/internal/render"
	"github.com/hpungsan/drape/internal/view"
)

// Snapshot is a consistent copy of everything the user can see.
type Snapshot struct {
	State       string        `json:"state"`
	Visible     []view.Panel  `json:"visible"`
	SidebarOpen bool          `json:"sidebar_open"`
	Gender      string        `json:"gender"`
	Genders     []string      `json:"genders"`
	Warning     string        `json:"warning,omitempty"`
	Affordance  string        `json:"affordance"`
	Candidate   string        `json:"candidate,omitempty"` // filename
	Preview     string        `json:"preview,omitempty"`   // candidate data URI
	Current     *render.View  `json:"current,omitempty"`
	History     []history.Row `json:"history"`
	ChatOpen    bool          `json:"chat_open"`
	Transcript  []chat.Turn   `json:"transcript"`
	Busy        bool          `json:"busy"`
}

// State returns a snapshot of the App.
func (a *App) State() *Snapshot {
	a.mu.Lock()
	state := a.view.State()
	snap := &Snapshot{
		State:       state.String(),
		Visible:     view.Visible(state),
		SidebarOpen: a.view.SidebarOpen(),
		Gender:      a.gender,
		Genders:     append([]string(nil), a.cfg.Genders...),
		Warning:     a.warning,
		Current:     a.current,
	}
	a.mu.Unlock()

	snap.Affordance = a.capture.Affordance().Label()
	if cand := a.capture.Current(); cand != nil {
		snap.Candidate = cand.File.Name
		snap.Preview = cand.Preview
	}
	snap.History = a.history.Rows()
	snap.ChatOpen = a.chat.Open()
	snap.Transcript = a.chat.Transcript()
	snap.Busy = a.busy.Load()
	return snap
}

// ToggleSidebar flips the navigation sidebar and returns the new value.
func (a *App) ToggleSidebar() bool {
	return a.view.ToggleSidebar()
}

// ToggleChat flips the chat window and returns the new value.
func (a *App) ToggleChat() bool {
	return a.chat.Toggle()
}
