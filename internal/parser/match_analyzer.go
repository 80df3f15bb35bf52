package parser

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"jobhunt-go/internal/types"
)

// defaultMatchPrompt 是岗位-简历匹配分析的默认提示词模板。
// 两个 %s 按顺序填入 职位JD原文 和 简历结构化JSON。
const defaultMatchPrompt = `You are an expert technical recruiter. Analyze how well the candidate's resume matches the job description below.

## Job Description
%s

## Candidate Resume (structured JSON)
%s

Respond with ONLY a JSON object, no other text:
{
  "confidence_score": <integer 0-100, how likely the candidate passes an initial screen>,
  "matched_skills": [<skills required by the job that the resume clearly demonstrates>],
  "missing_skills": [<skills required by the job that the resume does not show>],
  "transferable_skills": [<resume skills not named in the job but clearly transferable>],
  "strengths": [<2-4 short sentences on the candidate's strongest selling points for THIS job>],
  "gaps": [<2-4 short sentences on the biggest gaps for THIS job>],
  "recommendation": "<one of: strong_apply, apply, tailor_first, skip>",
  "keywords_detected": [
    {
      "term": "<important keyword/phrase from the job description>",
      "in_resume": <true if the resume already contains it>,
      "can_add_truthfully": <true only if the resume evidence supports adding it>,
      "reasoning": "<one sentence>"
    }
  ]
}

Rules:
- confidence_score must reflect the job's stated requirements, not generic seniority.
- keywords_detected should cover the 5-10 most screening-relevant terms.
- can_add_truthfully must be false unless the existing resume content genuinely supports the keyword.
- Never invent experience the resume does not contain.`

// LLMMatchAnalyzer 调用大模型对 职位JD × 结构化简历 做匹配度分析。
// 输出结构化的匹配结果（分数、技能差距、关键词检测），供缓存层落库。
type LLMMatchAnalyzer struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	fewShotExample string
	timeout        time.Duration
	logger         *log.Logger
}

// MatchAnalyzerOption 用于配置LLMMatchAnalyzer
type MatchAnalyzerOption func(*LLMMatchAnalyzer)

// WithMatchPromptTemplate 覆盖默认提示词模板（必须保留两个%s占位符）
func WithMatchPromptTemplate(template string) MatchAnalyzerOption {
	return func(a *LLMMatchAnalyzer) {
		if template != "" {
			a.promptTemplate = template
		}
	}
}

// WithMatchFewShotExample 在system消息前追加few-shot示例文本
func WithMatchFewShotExample(example string) MatchAnalyzerOption {
	return func(a *LLMMatchAnalyzer) {
		a.fewShotExample = example
	}
}

// WithMatchTimeout 设置单次分析的超时时间
func WithMatchTimeout(timeout time.Duration) MatchAnalyzerOption {
	return func(a *LLMMatchAnalyzer) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// WithMatchLogger 设置日志记录器
func WithMatchLogger(logger *log.Logger) MatchAnalyzerOption {
	return func(a *LLMMatchAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewLLMMatchAnalyzer 创建匹配分析器实例
func NewLLMMatchAnalyzer(llmModel model.ToolCallingChatModel, opts ...MatchAnalyzerOption) (*LLMMatchAnalyzer, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("LLM模型实例不能为空")
	}

	analyzer := &LLMMatchAnalyzer{
		llmModel:       llmModel,
		promptTemplate: defaultMatchPrompt,
		timeout:        90 * time.Second,
		logger:         log.New(os.Stderr, "[MatchAnalyzer] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer, nil
}

// Analyze 对一条JD和一份结构化简历执行匹配分析。
// resumeJSON 是简历画像序列化后的JSON字符串。
func (a *LLMMatchAnalyzer) Analyze(ctx context.Context, jobDescription, resumeJSON string) (*types.MatchAnalysis, error) {
	if jobDescription == "" {
		return nil, fmt.Errorf("职位描述不能为空")
	}
	if resumeJSON == "" {
		return nil, fmt.Errorf("简历内容不能为空")
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(a.promptTemplate, jobDescription, resumeJSON)

	systemContent := "You are a precise assistant that outputs only valid JSON."
	if a.fewShotExample != "" {
		systemContent = a.fewShotExample + "\n\n" + systemContent
	}

	messages := []*einoschema.Message{
		einoschema.SystemMessage(systemContent),
		einoschema.UserMessage(prompt),
	}

	startTime := time.Now()
	response, err := a.llmModel.Generate(analyzeCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("调用LLM进行匹配分析失败: %w", err)
	}
	a.logger.Printf("匹配分析LLM调用完成，耗时: %v", time.Since(startTime))

	var result types.MatchAnalysis
	if err := decodeLLMJSON(response.Content, &result); err != nil {
		return nil, fmt.Errorf("解析匹配分析结果失败: %w", err)
	}

	if err := a.validateResult(&result); err != nil {
		return nil, fmt.Errorf("匹配分析结果校验失败: %w", err)
	}

	return &result, nil
}

// validateResult 校验LLM输出的完整性。
// 分数越界只告警不拒绝，保留模型原始输出供上层排查。
func (a *LLMMatchAnalyzer) validateResult(result *types.MatchAnalysis) error {
	if result.ConfidenceScore < 0 || result.ConfidenceScore > 100 {
		a.logger.Printf("警告: confidence_score超出[0,100]范围: %d", result.ConfidenceScore)
	}

	switch result.Recommendation {
	case "strong_apply", "apply", "tailor_first", "skip":
	case "":
		return fmt.Errorf("recommendation字段为空")
	default:
		a.logger.Printf("警告: 未知的recommendation值: %s", result.Recommendation)
	}

	return nil
}
