package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/hpungsan/drape/internal/analysis"
	"github.com/hpungsan/drape/internal/errors"
)

// AnalysisClient posts photos to the analysis service.
type AnalysisClient struct {
	url  string
	http Doer
}

// NewAnalysisClient creates a client for the given endpoint.
// If httpClient is nil, http.DefaultClient is used.
func NewAnalysisClient(url string, httpClient Doer) *AnalysisClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AnalysisClient{url: url, http: httpClient}
}

// analysisEnvelope is the outer response document. Advice is itself JSON
// text and needs a second decode pass.
type analysisEnvelope struct {
	Error    string  `json:"error"`
	SkinTone string  `json:"skin_tone"`
	Advice   *string `json:"advice"`
}

// Analyze sends exactly one request; there is no retry.
func (c *AnalysisClient) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.NewTransport(ServiceAnalysis, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewTransport(ServiceAnalysis, err)
	}

	out, err := DecodeAnalysis(data)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		// A success body on an error status is not trusted
		return nil, errors.NewTransport(ServiceAnalysis, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode))
	}
	return out, nil
}

// DecodeAnalysis decodes an analysis response body.
//
// Step one decodes the envelope; a non-empty "error" short-circuits to a
// remote error. Step two decodes the advice string into Advice. A failure
// in either step is reported the same way as a transport failure.
func DecodeAnalysis(body []byte) (*AnalysisResponse, error) {
	var env analysisEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.NewTransport(ServiceAnalysis, fmt.Errorf("decode envelope: %w", err))
	}
	if strings.TrimSpace(env.Error) != "" {
		return nil, errors.NewRemote(ServiceAnalysis, env.Error)
	}
	if strings.TrimSpace(env.SkinTone) == "" {
		return nil, errors.NewTransport(ServiceAnalysis, fmt.Errorf("decode envelope: skin_tone missing"))
	}
	if env.Advice == nil {
		return nil, errors.NewTransport(ServiceAnalysis, fmt.Errorf("decode envelope: advice missing"))
	}

	var advice analysis.Advice
	if err := json.Unmarshal([]byte(*env.Advice), &advice); err != nil {
		return nil, errors.NewTransport(ServiceAnalysis, fmt.Errorf("decode advice: %w", err))
	}

	return &AnalysisResponse{
		SkinTone: env.SkinTone,
		Advice:   advice,
	}, nil
}

// EncodeAnalysis is the inverse of DecodeAnalysis, keeping the double
// encoding. Used by fakes of the service.
func EncodeAnalysis(skinTone string, advice analysis.Advice) ([]byte, error) {
	inner, err := json.Marshal(advice)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{
		"skin_tone": skinTone,
		"advice":    string(inner),
	})
}

// encodeMultipart builds the form with the "file" and "gender" fields.
func encodeMultipart(req AnalysisRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("gender", req.Gender); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
