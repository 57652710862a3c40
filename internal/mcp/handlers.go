package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/drape/internal/capture"
	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/ops"
	"github.com/hpungsan/drape/internal/view"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	app *ops.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(app *ops.App) *Handlers {
	return &Handlers{app: app}
}

// AnalyzeRequest represents the arguments for style_analyze.
type AnalyzeRequest struct {
	Path   string `json:"path"`
	Gender string `json:"gender,omitempty"`
}

// ReplayRequest represents the arguments for style_replay.
type ReplayRequest struct {
	ID string `json:"id"`
}

// ChatRequest represents the arguments for style_chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// HandleAnalyze handles the style_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errorResult(errors.NewValidation("path is required")), nil
	}

	f, err := capture.ReadFile(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrValidation) {
			return errorResult(err), nil
		}
		return errorResult(errors.NewValidation("cannot read file: " + input.Path)), nil
	}

	if h.app.View().State() == view.Results {
		if err := h.app.NewAnalysis(); err != nil {
			return errorResult(err), nil
		}
	}

	if _, err := h.app.SelectFile(ctx, ops.SelectInput{Source: capture.SourcePicker, File: f}); err != nil {
		return errorResult(err), nil
	}

	result, err := h.app.Analyze(ctx, ops.AnalyzeInput{Gender: input.Gender})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the style_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.app.List())
}

// HandleReplay handles the style_replay tool call.
func (h *Handlers) HandleReplay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReplayRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewValidation("id is required")), nil
	}

	result, err := h.app.Replay(strings.TrimSpace(input.ID))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReset handles the style_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.app.NewAnalysis(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"state": h.app.View().State().String()})
}

// HandleChat handles the style_chat tool call.
func (h *Handlers) HandleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ChatRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := h.app.SendChat(ctx, input.Message)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleState handles the style_state tool call.
func (h *Handlers) HandleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.app.State())
}

// Result helpers

// errorResult creates an MCP error result from any error.
// IsError is set so MCP clients recognize failures. Details of internal
// errors are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var dErr *errors.DrapeError
	if stderrors.As(err, &dErr) {
		errorObj := map[string]any{
			"code":    dErr.Code,
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errorObj["details"] = dErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
