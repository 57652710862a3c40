package ops

import (
	"context"

	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/errors"
)

// ChatOutput contains the result of the SendChat operation.
type ChatOutput struct {
	Reply      chat.Turn   `json:"reply"`
	Transcript []chat.Turn `json:"transcript"`
}

// SendChat posts a message to the chat session. The analysis context is
// read when the message is sent. Blank messages are rejected.
func (a *App) SendChat(ctx context.Context, message string) (*ChatOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout())
	defer cancel()

	reply, ok := a.chat.Send(callCtx, message)
	if !ok {
		return nil, errors.NewValidation("message must not be empty")
	}
	return &ChatOutput{Reply: reply, Transcript: a.chat.Transcript()}, nil
}
