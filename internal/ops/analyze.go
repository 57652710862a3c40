package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/drape/internal/analysis"
	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/remote"
	"github.com/hpungsan/drape/internal/render"
	"github.com/hpungsan/drape/internal/view"
)

// saveTimeout bounds the history write after a successful analysis.
const saveTimeout = 10 * time.Second

// AnalyzeInput contains parameters for the Analyze operation.
type AnalyzeInput struct {
	Gender string // optional; replaces the selector value first
}

// AnalyzeOutput contains the result of the Analyze operation.
type AnalyzeOutput struct {
	Record analysis.Result `json:"record"`
	View   render.View     `json:"view"`
	Saved  bool            `json:"saved"` // false if the history write failed
}

// Analyze sends the current candidate to the analysis service and shows the
// result. It makes exactly one remote call.
//
// With no candidate it records a warning and stays in INPUT. Otherwise the
// view goes to LOADING, and then to RESULTS on success or back to INPUT on
// any failure. The upload control returns to its placeholder either way.
func (a *App) Analyze(ctx context.Context, input AnalyzeInput) (out *AnalyzeOutput, err error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, errors.NewBusy("analysis")
	}
	defer a.busy.Store(false)

	if input.Gender != "" {
		if _, err := a.SetGender(input.Gender); err != nil {
			return nil, err
		}
	}

	cand := a.capture.Current()
	if cand == nil {
		a.setWarning(WarnNoPhoto)
		return nil, errors.NewValidation(WarnNoPhoto)
	}

	if _, err := a.view.Fire(view.EventSubmit); err != nil {
		return nil, err
	}
	a.setWarning("")
	gender := a.Gender()

	defer func() {
		if r := recover(); r != nil {
			err = errors.NewInternal(fmt.Errorf("analysis panicked: %v", r))
			out = nil
		}
		if err != nil {
			a.fail(err)
		}
		a.capture.Reset()
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout())
	defer cancel()

	resp, err := a.analyzer.Analyze(callCtx, cand.Request(gender))
	if err != nil {
		return nil, err
	}

	rec := analysis.Result{
		ID:       a.newID(),
		Date:     a.now().Local().Format(DateLayout),
		Gender:   gender,
		SkinTone: resp.SkinTone,
		Advice:   resp.Advice,
	}
	if a.cfg.EmbedPreview {
		rec.Preview = cand.Preview
	}
	v := render.Render(rec, a.renderOptions())

	// The result is accepted; a caller that went away must not lose it.
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer saveCancel()

	saved := true
	if perr := a.history.Append(saveCtx, rec); perr != nil {
		saved = false
		a.logger.Warn("history write failed", "id", rec.ID, "error", perr, "cause", errors.Cause(perr))
		a.setWarning(WarnNotSaved)
	}

	if terr := a.transition(view.EventSuccess, &rec, &v); terr != nil {
		// A replay took over the display while the call was in flight.
		a.logger.Info("analysis stored without display", "id", rec.ID, "state", a.view.State().String())
	} else {
		a.logger.Info("analysis complete", "id", rec.ID, "skin_tone", rec.SkinTone, "gender", gender)
	}

	return &AnalyzeOutput{Record: rec, View: v, Saved: saved}, nil
}

// fail records the generic warning, logs the raw cause and returns to INPUT.
func (a *App) fail(err error) {
	a.logger.Error("analysis failed",
		"service", remote.ServiceAnalysis,
		"error", err,
		"cause", errors.Cause(err),
	)
	a.setWarning(WarnAnalysisFailed)
	if terr := a.transition(view.EventFailure, nil, nil); terr != nil {
		a.logger.Debug("failure transition skipped", "state", a.view.State().String(), "error", terr)
	}
}
