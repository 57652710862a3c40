package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hpungsan/drape/internal/errors"
)

// ChatClient posts messages to the chat service.
type ChatClient struct {
	url  string
	http Doer
}

// NewChatClient creates a client for the given endpoint.
// If httpClient is nil, http.DefaultClient is used.
func NewChatClient(url string, httpClient Doer) *ChatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatClient{url: url, http: httpClient}
}

type chatEnvelope struct {
	Error    string  `json:"error"`
	Response *string `json:"response"`
}

// Chat sends one message and returns the reply text.
func (c *ChatClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.NewTransport(ServiceChat, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.NewTransport(ServiceChat, err)
	}

	reply, err := DecodeChat(data)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", errors.NewTransport(ServiceChat, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode))
	}
	return reply, nil
}

// DecodeChat decodes a chat response body.
func DecodeChat(body []byte) (string, error) {
	var env chatEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", errors.NewTransport(ServiceChat, fmt.Errorf("decode response: %w", err))
	}
	if strings.TrimSpace(env.Error) != "" {
		return "", errors.NewRemote(ServiceChat, env.Error)
	}
	if env.Response == nil {
		return "", errors.NewTransport(ServiceChat, fmt.Errorf("decode response: response missing"))
	}
	return *env.Response, nil
}
