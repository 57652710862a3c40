package ops

import (
	"context"

	"github.com/hpungsan/drape/internal/capture"
	"github.com/hpungsan/drape/internal/errors"
)

// SelectInput contains parameters for the SelectFile operation.
type SelectInput struct {
	Source capture.Source // picker or drop; both end the same way
	File   capture.File
}

// SelectOutput contains the result of the SelectFile operation.
type SelectOutput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Source      string `json:"source"`
	Affordance  string `json:"affordance"`
}

// SelectFile makes a picked or dropped file the upload candidate.
// A non-image file is rejected with a validation error and changes nothing.
func (a *App) SelectFile(ctx context.Context, input SelectInput) (*SelectOutput, error) {
	cand, err := a.capture.Submit(ctx, input.Source, input.File)
	if err != nil {
		if !errors.Is(err, errors.ErrValidation) {
			a.logger.Debug("file selection dropped", "file", input.File.Name, "error", err)
		}
		return nil, err
	}

	a.mu.Lock()
	if a.warning == WarnNoPhoto {
		a.warning = ""
	}
	a.mu.Unlock()

	return &SelectOutput{
		Filename:    cand.File.Name,
		ContentType: cand.File.ContentType,
		Source:      cand.Source.String(),
		Affordance:  a.capture.Affordance().Label(),
	}, nil
}

// SetGender changes the attribute selector. Unknown values are rejected.
func (a *App) SetGender(g string) (string, error) {
	canonical, ok := a.cfg.ValidGender(g)
	if !ok {
		return "", errors.NewValidation("unknown gender: " + g)
	}
	a.mu.Lock()
	a.gender = canonical
	a.mu.Unlock()
	return canonical, nil
}

// Gender returns the attribute selector value.
func (a *App) Gender() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gender
}
