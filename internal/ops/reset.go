package ops

import "github.com/hpungsan/drape/internal/view"

// NewAnalysis returns from RESULTS to the input form: the candidate is
// cleared, the upload control goes back to its placeholder and the record
// on display is dropped.
func (a *App) NewAnalysis() error {
	if err := a.transition(view.EventReset, nil, nil); err != nil {
		return err
	}
	a.capture.Reset()
	a.setWarning("")
	return nil
}
