package agent

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAliyunQwenChatModel 空API密钥直接拒绝，空模型名/URL走默认值
func TestNewAliyunQwenChatModel(t *testing.T) {
	_, err := NewAliyunQwenChatModel("", "", "")
	assert.Error(t, err)

	m, err := NewAliyunQwenChatModel("sk-test", "", "", WithQwenLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	assert.Equal(t, defaultQwenModelName, m.modelName)
	assert.Equal(t, openAICompatibleQwenAPIURL, m.apiURL)
}

// TestAliyunQwenChatModel_Generate 请求体和鉴权头符合OpenAI兼容协议
func TestAliyunQwenChatModel_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen-plus", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, schema.System, req.Messages[0].Role)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.2, float64(*req.Temperature), 0.001)

		resp := openAICompletionResponse{
			Id: "chatcmpl-1",
			Choices: []openAIChatChoice{
				{Message: openAIMessage{Role: "assistant", Content: strPtr(`{"ok": true}`)}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	m, err := NewAliyunQwenChatModel("sk-test", "qwen-plus", server.URL,
		WithTemperature(0.2),
		WithQwenLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You output JSON."),
		schema.UserMessage("Analyze this."),
	})
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"ok": true}`, msg.Content)
}

// TestAliyunQwenChatModel_GenerateAPIError 非200响应返回带响应体的错误
func TestAliyunQwenChatModel_GenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	m, err := NewAliyunQwenChatModel("sk-test", "", server.URL, WithQwenLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// TestAliyunQwenChatModel_EmptyChoices 空choices视为错误
func TestAliyunQwenChatModel_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	m, err := NewAliyunQwenChatModel("sk-test", "", server.URL, WithQwenLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
