package parser

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"jobhunt-go/internal/types"
)

// defaultTailorPrompt 简历定制的默认提示词模板。
// 三个 %s 按顺序填入 职位JD原文、简历结构化JSON、匹配分析JSON（可为"null"）。
const defaultTailorPrompt = `You are a professional resume writer. Tailor the candidate's resume for the job below. You rephrase, reorder and emphasize; you NEVER fabricate experience, employers, dates, degrees or certifications.

## Job Description
%s

## Current Resume (structured JSON)
%s

## Prior Match Analysis (may be null)
%s

Respond with ONLY a JSON object, no other text:
{
  "tailored_resume": {<same schema as the input resume, with tailored content>},
  "changes": [
    {
      "section": "<summary|skills|experience[i]|education>",
      "original": "",
      "modified": "",
      "type": "<rewrite|reorder|emphasize|add>",
      "explanation": "",
      "truthful": true
    }
  ],
  "keywords_applied": [
    {"term": "", "location": "", "context": "", "already_present": false}
  ],
  "keywords_not_applied": [
    {"term": "", "reason": ""}
  ],
  "honesty_score": <integer 0-100, 100 means every change is fully supported by the original resume>
}

Rules:
- Every change entry must have truthful=true; if a change would require inventing facts, skip it and record the keyword under keywords_not_applied.
- Keep all employment dates, company names and titles exactly as in the original.
- tailored_resume must remain a complete resume, not a diff.`

// defaultCoverLetterPrompt 求职信生成的默认提示词模板。
// 三个 %s 按顺序填入 职位JD原文、简历结构化JSON、用户附加要求（可为空）。
const defaultCoverLetterPrompt = `Write a concise cover letter (250-350 words) for the job below, grounded strictly in the candidate's resume. Plain text only, no JSON, no markdown, no placeholder brackets.

## Job Description
%s

## Candidate Resume (structured JSON)
%s

## Extra instructions from the candidate
%s

Rules:
- Reference 2-3 concrete achievements from the resume that map to the job's requirements.
- Do not claim any skill or experience the resume does not contain.
- No salutation placeholders like "[Hiring Manager Name]"; use "Dear Hiring Team,".`

// LLMResumeTailor 调用大模型针对特定岗位定制简历。
// 每处修改都带审计信息，诚实性约束写死在提示词里。
type LLMResumeTailor struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	timeout        time.Duration
	logger         *log.Logger
}

// ResumeTailorOption 用于配置LLMResumeTailor
type ResumeTailorOption func(*LLMResumeTailor)

// WithTailorPromptTemplate 覆盖默认提示词模板（必须保留三个%s占位符）
func WithTailorPromptTemplate(template string) ResumeTailorOption {
	return func(t *LLMResumeTailor) {
		if template != "" {
			t.promptTemplate = template
		}
	}
}

// WithTailorTimeout 设置单次定制的超时时间
func WithTailorTimeout(timeout time.Duration) ResumeTailorOption {
	return func(t *LLMResumeTailor) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// WithTailorLogger 设置日志记录器
func WithTailorLogger(logger *log.Logger) ResumeTailorOption {
	return func(t *LLMResumeTailor) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewLLMResumeTailor 创建简历定制器
func NewLLMResumeTailor(llmModel model.ToolCallingChatModel, opts ...ResumeTailorOption) (*LLMResumeTailor, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("LLM模型实例不能为空")
	}

	t := &LLMResumeTailor{
		llmModel:       llmModel,
		promptTemplate: defaultTailorPrompt,
		timeout:        120 * time.Second,
		logger:         log.New(os.Stderr, "[ResumeTailor] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Tailor 针对岗位定制简历。analysisJSON 为此前的匹配分析JSON，没有时传空串。
func (t *LLMResumeTailor) Tailor(ctx context.Context, jobDescription, resumeJSON, analysisJSON string) (*types.TailoredResumeResult, error) {
	if jobDescription == "" {
		return nil, fmt.Errorf("职位描述不能为空")
	}
	if resumeJSON == "" {
		return nil, fmt.Errorf("简历内容不能为空")
	}
	if analysisJSON == "" {
		analysisJSON = "null"
	}

	tailorCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	messages := []*einoschema.Message{
		einoschema.SystemMessage("You are a precise assistant that outputs only valid JSON."),
		einoschema.UserMessage(fmt.Sprintf(t.promptTemplate, jobDescription, resumeJSON, analysisJSON)),
	}

	startTime := time.Now()
	response, err := t.llmModel.Generate(tailorCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("调用LLM定制简历失败: %w", err)
	}
	t.logger.Printf("简历定制LLM调用完成，耗时: %v", time.Since(startTime))

	var result types.TailoredResumeResult
	if err := decodeLLMJSON(response.Content, &result); err != nil {
		return nil, fmt.Errorf("解析简历定制结果失败: %w", err)
	}

	if result.HonestyScore < 0 || result.HonestyScore > 100 {
		t.logger.Printf("警告: honesty_score超出[0,100]范围: %d", result.HonestyScore)
	}
	for _, change := range result.Changes {
		if !change.Truthful {
			t.logger.Printf("警告: 检测到truthful=false的修改，section=%s", change.Section)
		}
	}

	return &result, nil
}

// LLMCoverLetterWriter 调用大模型生成求职信（纯文本输出，不走JSON解析）
type LLMCoverLetterWriter struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	timeout        time.Duration
	logger         *log.Logger
}

// NewLLMCoverLetterWriter 创建求职信生成器
func NewLLMCoverLetterWriter(llmModel model.ToolCallingChatModel, logger *log.Logger) (*LLMCoverLetterWriter, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("LLM模型实例不能为空")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[CoverLetter] ", log.LstdFlags)
	}
	return &LLMCoverLetterWriter{
		llmModel:       llmModel,
		promptTemplate: defaultCoverLetterPrompt,
		timeout:        60 * time.Second,
		logger:         logger,
	}, nil
}

// Write 生成一封求职信。instructions 为用户附加要求，可为空。
func (w *LLMCoverLetterWriter) Write(ctx context.Context, jobDescription, resumeJSON, instructions string) (string, error) {
	if jobDescription == "" {
		return "", fmt.Errorf("职位描述不能为空")
	}
	if resumeJSON == "" {
		return "", fmt.Errorf("简历内容不能为空")
	}
	if instructions == "" {
		instructions = "(none)"
	}

	writeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	messages := []*einoschema.Message{
		einoschema.UserMessage(fmt.Sprintf(w.promptTemplate, jobDescription, resumeJSON, instructions)),
	}

	response, err := w.llmModel.Generate(writeCtx, messages)
	if err != nil {
		return "", fmt.Errorf("调用LLM生成求职信失败: %w", err)
	}

	letter := strings.TrimSpace(strings.TrimPrefix(response.Content, "\uFEFF"))
	if letter == "" {
		return "", fmt.Errorf("LLM返回了空的求职信")
	}
	return letter, nil
}
