package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-go/internal/tracing"
)

var qwenTracer = otel.Tracer("jobhunt-go/agent/qwen")

// lastUserContent 取最后一条用户消息作为span上的提示词预览
func lastUserContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i] != nil && messages[i].Role == schema.User {
			return messages[i].Content
		}
	}
	return ""
}

const (
	// DashScope 的 OpenAI 兼容端点
	openAICompatibleQwenAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultQwenModelName       = "qwen-plus"
)

// --- OpenAI 兼容请求/响应结构 ---

type openAIChatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"` // eino的schema.Message与OpenAI的role/content结构兼容
	Temperature *float32          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openAIChatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
	Usage   openAIUsage        `json:"usage"`
}

// AliyunQwenChatModel 通过 DashScope 的 OpenAI 兼容 API 与通义千问交互，
// 实现 model.ToolCallingChatModel 接口。本项目所有LLM调用都是单轮生成，
// 不使用工具调用，WithTools 仅为满足接口存在。
type AliyunQwenChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature *float32
	maxTokens   *int
	httpClient  *http.Client
	logger      *log.Logger
}

// QwenOption 用于配置AliyunQwenChatModel
type QwenOption func(*AliyunQwenChatModel)

// WithTemperature 设置采样温度
func WithTemperature(temperature float32) QwenOption {
	return func(m *AliyunQwenChatModel) {
		m.temperature = &temperature
	}
}

// WithMaxTokens 设置最大生成token数
func WithMaxTokens(maxTokens int) QwenOption {
	return func(m *AliyunQwenChatModel) {
		if maxTokens > 0 {
			m.maxTokens = &maxTokens
		}
	}
}

// WithHTTPClient 替换默认HTTP客户端（测试用）
func WithHTTPClient(client *http.Client) QwenOption {
	return func(m *AliyunQwenChatModel) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithQwenLogger 设置日志记录器
func WithQwenLogger(logger *log.Logger) QwenOption {
	return func(m *AliyunQwenChatModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewAliyunQwenChatModel 创建一个新的通义千问客户端。
// modelName和apiURL传空串时使用默认值。
func NewAliyunQwenChatModel(apiKey string, modelName string, apiURL string, opts ...QwenOption) (*AliyunQwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultQwenModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = openAICompatibleQwenAPIURL
	}

	m := &AliyunQwenChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{Timeout: 180 * time.Second},
		logger:     log.New(os.Stderr, "[QwenModel] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Printf("使用阿里云通义千问 LLM 客户端，API URL: %s, 模型: %s", url, mn)
	return m, nil
}

// Generate 实现 model.ChatModel 接口
func (aq *AliyunQwenChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	ctx, span := qwenTracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model_name", aq.modelName),
		attribute.String("llm.prompt_preview", tracing.SafePrompt(lastUserContent(messages))),
	)

	reqPayload := openAIChatCompletionRequest{
		Model:       aq.modelName,
		Messages:    messages,
		Temperature: aq.temperature,
		MaxTokens:   aq.maxTokens,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aq.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+aq.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	httpResp, err := aq.httpClient.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("发送 HTTP 请求失败: %w", err)
		tracing.RecordLLMError(span, err, aq.modelName)
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		err = fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
		tracing.RecordHTTPError(span, err, httpResp.StatusCode)
		return nil, err
	}

	var openAIResp openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
	}

	if len(openAIResp.Choices) == 0 {
		err := fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
		tracing.RecordLLMError(span, err, aq.modelName)
		return nil, err
	}

	aq.logger.Printf("LLM调用完成，模型: %s, 耗时: %v, tokens: %d/%d",
		aq.modelName, time.Since(startTime), openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens)

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	role := schema.RoleType(apiMessage.Role)
	if role == "" {
		role = schema.Assistant
	}

	return &schema.Message{
		Role:    role,
		Content: responseContent,
	}, nil
}

// Stream 实现 model.ChatModel 接口。当前所有调用方都走Generate，未实现流式。
func (aq *AliyunQwenChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("AliyunQwenChatModel (OpenAI 兼容) 的 Stream 方法未实现")
}

// WithTools 实现 model.ToolCallingChatModel 接口。
// 本项目不做工具调用，直接返回自身。
func (aq *AliyunQwenChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if len(tools) > 0 {
		aq.logger.Printf("警告: WithTools 收到 %d 个工具，但本模型不支持工具调用，已忽略。", len(tools))
	}
	return aq, nil
}

var _ model.ToolCallingChatModel = (*AliyunQwenChatModel)(nil)
