// Package remote talks to the two external collaborators: the image
// analysis service and the chat service.
//
// Both services answer with a JSON object that carries either an "error"
// string or the payload. Anything else (network failure, non-JSON body,
// a payload that does not decode) is a transport error.
package remote

import (
	"context"
	"net/http"

	"github.com/hpungsan/drape/internal/analysis"
)

// Service names used in errors and logs.
const (
	ServiceAnalysis = "analysis"
	ServiceChat     = "chat"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// AnalysisRequest is one submission to the analysis service.
// Build it with capture.Candidate.Request; there is no request without a photo.
type AnalysisRequest struct {
	Filename    string
	ContentType string
	Image       []byte
	Gender      string
}

// AnalysisResponse is the decoded analysis result.
type AnalysisResponse struct {
	SkinTone string
	Advice   analysis.Advice
}

// ChatRequest is one chat message with the analysis context it refers to.
type ChatRequest struct {
	Message  string `json:"message"`
	Gender   string `json:"gender"`
	SkinTone string `json:"skin_tone"`
}

// Analyzer is the analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}

// Chatter is the chat collaborator.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Doer is the subset of *http.Client used by the clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
