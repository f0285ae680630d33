package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/inference/config"
	"github.com/yungbote/codepath-backend/internal/inference/engine"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestGenerateText_SystemSplitAndTextBlocks(t *testing.T) {
	var payload map[string]any
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/messages", req.URL.Path)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		return respond(http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","stop_reason":"end_turn","content":[{"type":"text","text":"{\"reply\":"},{"type":"text","text":"\"hi\"}"}],"usage":{"input_tokens":3,"output_tokens":4}}`), nil
	})}

	e, err := New(config.EngineConfig{APIKey: "ak", BaseURL: "http://upstream"}, option.WithHTTPClient(client))
	require.NoError(t, err)

	out, err := e.GenerateText(context.Background(), "claude-sonnet-4-5", []engine.Message{
		{Role: engine.RoleSystem, Content: "only json"},
		{Role: engine.RoleUser, Content: "hello"},
	}, engine.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"hi"}`, out)

	assert.EqualValues(t, DefaultMaxTokens, payload["max_tokens"])
	system, _ := payload["system"].([]any)
	require.Len(t, system, 1)
	msgs, _ := payload["messages"].([]any)
	assert.Len(t, msgs, 1)
}

func TestGenerateText_APIError(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`), nil
	})}
	e, err := New(config.EngineConfig{APIKey: "ak", BaseURL: "http://upstream"}, option.WithHTTPClient(client))
	require.NoError(t, err)

	_, err = e.GenerateText(context.Background(), "m", []engine.Message{{Role: engine.RoleUser, Content: "x"}}, engine.GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}
