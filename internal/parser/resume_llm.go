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

// defaultResumeParsePrompt 简历结构化提取的默认提示词模板，%s为清洗后的简历纯文本。
const defaultResumeParsePrompt = `Parse the resume text below into structured data.

## Resume Text
%s

Respond with ONLY a JSON object, no other text:
{
  "full_name": "",
  "email": "",
  "phone": "",
  "location": "",
  "summary": "<professional summary, write one from the content if the resume has none>",
  "skills": [<every technical and professional skill mentioned>],
  "experience": [
    {
      "title": "",
      "company": "",
      "start_date": "YYYY-MM",
      "end_date": "YYYY-MM or null if current",
      "description": "",
      "achievements": [<bullet points as written>]
    }
  ],
  "education": [
    {
      "degree": "",
      "institution": "",
      "graduation_date": "YYYY-MM",
      "gpa": "string or null"
    }
  ],
  "certifications": []
}

Rules:
- Extract only what the text contains. Use "" or [] for anything absent, never invent values.
- Normalize all dates to YYYY-MM; if only a year is given use YYYY-01.
- Keep achievement bullets verbatim, minus bullet characters.`

// LLMResumeParser 调用大模型把简历纯文本结构化为ResumeProfile。
// 提取器(PDF/Tika)负责拿到文本，本组件只负责文本到结构的转换。
type LLMResumeParser struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	timeout        time.Duration
	logger         *log.Logger
}

// ResumeParserOption 用于配置LLMResumeParser
type ResumeParserOption func(*LLMResumeParser)

// WithResumePromptTemplate 覆盖默认提示词模板（必须保留一个%s占位符）
func WithResumePromptTemplate(template string) ResumeParserOption {
	return func(p *LLMResumeParser) {
		if template != "" {
			p.promptTemplate = template
		}
	}
}

// WithResumeParserTimeout 设置单次解析的超时时间
func WithResumeParserTimeout(timeout time.Duration) ResumeParserOption {
	return func(p *LLMResumeParser) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithResumeParserLogger 设置日志记录器
func WithResumeParserLogger(logger *log.Logger) ResumeParserOption {
	return func(p *LLMResumeParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewLLMResumeParser 创建简历结构化解析器
func NewLLMResumeParser(llmModel model.ToolCallingChatModel, opts ...ResumeParserOption) (*LLMResumeParser, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("LLM模型实例不能为空")
	}

	p := &LLMResumeParser{
		llmModel:       llmModel,
		promptTemplate: defaultResumeParsePrompt,
		timeout:        60 * time.Second,
		logger:         log.New(os.Stderr, "[ResumeParser] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse 将简历纯文本解析为结构化档案
func (p *LLMResumeParser) Parse(ctx context.Context, resumeText string) (*types.ResumeProfile, error) {
	if resumeText == "" {
		return nil, fmt.Errorf("简历文本不能为空")
	}

	parseCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := []*einoschema.Message{
		einoschema.SystemMessage("You are a precise assistant that outputs only valid JSON."),
		einoschema.UserMessage(fmt.Sprintf(p.promptTemplate, resumeText)),
	}

	startTime := time.Now()
	response, err := p.llmModel.Generate(parseCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("调用LLM解析简历失败: %w", err)
	}
	p.logger.Printf("简历解析LLM调用完成，耗时: %v, 文本长度: %d", time.Since(startTime), len(resumeText))

	var profile types.ResumeProfile
	if err := decodeLLMJSON(response.Content, &profile); err != nil {
		return nil, fmt.Errorf("解析简历结构化结果失败: %w", err)
	}

	if profile.FullName == "" && len(profile.Skills) == 0 && len(profile.Experience) == 0 {
		return nil, fmt.Errorf("简历解析结果为空，可能不是有效的简历文本")
	}

	return &profile, nil
}
