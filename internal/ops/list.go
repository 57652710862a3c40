package ops

import "github.com/hpungsan/drape/internal/history"

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []history.Row `json:"items"`
	Total int           `json:"total"`
}

// List returns the history rows, newest first.
func (a *App) List() *ListOutput {
	rows := a.history.Rows()
	return &ListOutput{Items: rows, Total: len(rows)}
}
