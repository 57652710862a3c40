package ops

import (
	"github.com/hpungsan/drape/internal/analysis"
	"github.com/hpungsan/drape/internal/render"
	"github.com/hpungsan/drape/internal/view"
)

// ReplayOutput contains the result of the Replay operation.
type ReplayOutput struct {
	Record analysis.Result `json:"record"`
	View   render.View     `json:"view"`
}

// Replay shows a history entry again, from any state. It never calls the
// analysis service and never changes history.
func (a *App) Replay(id string) (*ReplayOutput, error) {
	rec, err := a.history.Get(id)
	if err != nil {
		return nil, err
	}

	v := render.Render(rec, a.renderOptions())
	if err := a.transition(view.EventReplay, &rec, &v); err != nil {
		return nil, err
	}
	return &ReplayOutput{Record: rec, View: v}, nil
}
