// Package view is the display switch between the input form, the loading
// indicator and the results page. Exactly one of the three is visible.
package view

import (
	"sync"

	"github.com/hpungsan/drape/internal/errors"
)

// State is the active presentation.
type State int

const (
	Input State = iota
	Loading
	Results
)

func (s State) String() string {
	switch s {
	case Loading:
		return "LOADING"
	case Results:
		return "RESULTS"
	default:
		return "INPUT"
	}
}

// Event drives a transition.
type Event string

const (
	EventSubmit  Event = "submit"  // analyze with a candidate present
	EventSuccess Event = "success" // remote analysis succeeded
	EventFailure Event = "failure" // remote analysis failed
	EventReset   Event = "reset"   // "new analysis"
	EventReplay  Event = "replay"  // history item selected
)

// Panel is a top-level region of the page.
type Panel string

const (
	PanelInput   Panel = "input"
	PanelLoading Panel = "loading"
	PanelResults Panel = "results"
)

// transitions lists the accepted (state, event) pairs. Replay is accepted
// from every state and handled separately.
var transitions = map[State]map[Event]State{
	Input:   {EventSubmit: Loading},
	Loading: {EventSuccess: Results, EventFailure: Input},
	Results: {EventReset: Input},
}

// Next returns the state reached from s on ev, or an illegal-transition error.
func Next(s State, ev Event) (State, error) {
	if ev == EventReplay {
		return Results, nil
	}
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, errors.NewIllegalTransition(s.String(), string(ev))
}

// Visible returns the panels shown in state s. It is the only place that
// decides visibility.
func Visible(s State) []Panel {
	switch s {
	case Loading:
		return []Panel{PanelLoading}
	case Results:
		return []Panel{PanelResults}
	default:
		return []Panel{PanelInput}
	}
}

// Controller holds the current state and the navigation sidebar flag.
// It is safe for concurrent use.
type Controller struct {
	mu          sync.Mutex
	state       State
	sidebarOpen bool
}

// NewController starts in Input with the sidebar collapsed.
func NewController() *Controller {
	return &Controller{state: Input}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SidebarOpen reports whether the navigation sidebar is expanded.
func (c *Controller) SidebarOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sidebarOpen
}

// ToggleSidebar flips the sidebar and returns the new value.
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sidebarOpen = !c.sidebarOpen
	return c.sidebarOpen
}

// Fire applies ev. On error the state is unchanged.
// Every transition that lands in Input, and every replay, collapses the sidebar.
func (c *Controller) Fire(ev Event) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	to, err := Next(c.state, ev)
	if err != nil {
		return c.state, err
	}
	c.state = to
	if to == Input || ev == EventReplay {
		c.sidebarOpen = false
	}
	return to, nil
}
