package parser

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用LLM模型模拟器
type MockLLMModel struct {
	// 模拟响应
	mockResponse string
	// 用于测试的错误
	Err error
	// 用于测试的调用次数
	CallCount int
	// 记录最近一次收到的消息
	lastMessages []*schema.Message
}

// Generate 实现model.ChatModel接口
func (m *MockLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.CallCount++
	m.lastMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	return &schema.Message{
		Role:    "assistant",
		Content: m.mockResponse,
	}, nil
}

// Stream 实现model.ChatModel接口
func (m *MockLLMModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	// 测试中不需要流式响应
	return nil, nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (m *MockLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// TestLLMResumeParser_Parse 测试简历文本结构化的基本功能
func TestLLMResumeParser_Parse(t *testing.T) {
	mockResponse := `{
		"full_name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "+1 555 0100",
		"location": "Berlin, Germany",
		"summary": "Backend engineer with 6 years of Go experience.",
		"skills": ["Go", "MySQL", "Redis", "Kubernetes"],
		"experience": [
			{
				"title": "Senior Backend Engineer",
				"company": "Acme GmbH",
				"start_date": "2021-03",
				"end_date": null,
				"description": "Payments platform",
				"achievements": ["Cut p99 latency by 40%"]
			}
		],
		"education": [
			{
				"degree": "BSc Computer Science",
				"institution": "TU Berlin",
				"graduation_date": "2018-07",
				"gpa": null
			}
		],
		"certifications": []
	}`

	mockLLM := &MockLLMModel{mockResponse: mockResponse}
	parser, err := NewLLMResumeParser(mockLLM, WithResumeParserLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := parser.Parse(ctx, "Jane Doe\njane@example.com\nSenior Backend Engineer at Acme GmbH ...")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "Jane Doe", profile.FullName)
	assert.Equal(t, []string{"Go", "MySQL", "Redis", "Kubernetes"}, profile.Skills)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "2021-03", profile.Experience[0].StartDate)
	assert.Nil(t, profile.Experience[0].EndDate)
	require.Len(t, profile.Education, 1)
	assert.Nil(t, profile.Education[0].GPA)
	assert.Equal(t, 1, mockLLM.CallCount)
}

// TestLLMResumeParser_EmptyInput 空文本直接拒绝，不触发LLM调用
func TestLLMResumeParser_EmptyInput(t *testing.T) {
	mockLLM := &MockLLMModel{}
	parser, err := NewLLMResumeParser(mockLLM, WithResumeParserLogger(testLogger()))
	require.NoError(t, err)

	_, err = parser.Parse(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, 0, mockLLM.CallCount)
}

// TestLLMResumeParser_EmptyResult 模型返回三大关键字段全空时视为解析失败
func TestLLMResumeParser_EmptyResult(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"full_name": "", "skills": [], "experience": []}`}
	parser, err := NewLLMResumeParser(mockLLM, WithResumeParserLogger(testLogger()))
	require.NoError(t, err)

	_, err = parser.Parse(context.Background(), "lorem ipsum not a resume")
	assert.Error(t, err)
}

// TestLLMResumeParser_MarkdownFence 模型把JSON包在```json围栏里也能解析
func TestLLMResumeParser_MarkdownFence(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "```json\n{\"full_name\": \"Jane Doe\", \"skills\": [\"Go\"], \"experience\": [], \"education\": [], \"certifications\": []}\n```"}
	parser, err := NewLLMResumeParser(mockLLM, WithResumeParserLogger(testLogger()))
	require.NoError(t, err)

	profile, err := parser.Parse(context.Background(), "Jane Doe, Go developer")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.FullName)
}

// TestLLMMatchAnalyzer_Analyze 测试匹配分析的基本功能
func TestLLMMatchAnalyzer_Analyze(t *testing.T) {
	mockResponse := `Here is the analysis:
	{
		"confidence_score": 78,
		"matched_skills": ["Go", "MySQL"],
		"missing_skills": ["Kafka"],
		"transferable_skills": ["RabbitMQ"],
		"strengths": ["Strong Go background matching the core requirement."],
		"gaps": ["No streaming experience mentioned."],
		"recommendation": "tailor_first",
		"keywords_detected": [
			{"term": "Kafka", "in_resume": false, "can_add_truthfully": false, "reasoning": "No messaging-at-scale evidence."},
			{"term": "Go", "in_resume": true, "can_add_truthfully": true, "reasoning": "Explicitly listed."}
		]
	}`

	mockLLM := &MockLLMModel{mockResponse: mockResponse}
	analyzer, err := NewLLMMatchAnalyzer(mockLLM, WithMatchLogger(testLogger()))
	require.NoError(t, err)

	result, err := analyzer.Analyze(context.Background(), "We need a Go engineer with Kafka experience.", `{"full_name":"Jane Doe"}`)
	require.NoError(t, err)

	assert.Equal(t, 78, result.ConfidenceScore)
	assert.Equal(t, "tailor_first", result.Recommendation)
	require.Len(t, result.KeywordsDetected, 2)
	assert.False(t, result.KeywordsDetected[0].CanAddTruthfully)
	assert.True(t, result.KeywordsDetected[1].InResume)
}

// TestLLMMatchAnalyzer_OutOfRangeScore 分数越界只告警，结果照常返回
func TestLLMMatchAnalyzer_OutOfRangeScore(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"confidence_score": 120, "recommendation": "apply", "matched_skills": [], "missing_skills": [], "transferable_skills": [], "strengths": [], "gaps": [], "keywords_detected": []}`}
	analyzer, err := NewLLMMatchAnalyzer(mockLLM, WithMatchLogger(testLogger()))
	require.NoError(t, err)

	result, err := analyzer.Analyze(context.Background(), "jd", `{"x":1}`)
	require.NoError(t, err)
	assert.Equal(t, 120, result.ConfidenceScore)
}

// TestLLMMatchAnalyzer_MissingRecommendation recommendation为空视为无效输出
func TestLLMMatchAnalyzer_MissingRecommendation(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: `{"confidence_score": 50, "recommendation": ""}`}
	analyzer, err := NewLLMMatchAnalyzer(mockLLM, WithMatchLogger(testLogger()))
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), "jd", `{"x":1}`)
	assert.Error(t, err)
}

// TestLLMResumeTailor_Tailor 测试简历定制的基本功能
func TestLLMResumeTailor_Tailor(t *testing.T) {
	mockResponse := `{
		"tailored_resume": {
			"full_name": "Jane Doe",
			"summary": "Go engineer focused on high-throughput payment systems.",
			"skills": ["Go", "MySQL", "Redis"],
			"experience": [],
			"education": [],
			"certifications": []
		},
		"changes": [
			{"section": "summary", "original": "Backend engineer.", "modified": "Go engineer focused on high-throughput payment systems.", "type": "rewrite", "explanation": "Mirrors the job's payments focus.", "truthful": true}
		],
		"keywords_applied": [
			{"term": "payments", "location": "summary", "context": "payment systems", "already_present": false}
		],
		"keywords_not_applied": [
			{"term": "Kafka", "reason": "No supporting experience in the resume."}
		],
		"honesty_score": 95
	}`

	mockLLM := &MockLLMModel{mockResponse: mockResponse}
	tailor, err := NewLLMResumeTailor(mockLLM, WithTailorLogger(testLogger()))
	require.NoError(t, err)

	result, err := tailor.Tailor(context.Background(), "Payments team hiring Go engineers.", `{"full_name":"Jane Doe"}`, "")
	require.NoError(t, err)

	assert.Equal(t, 95, result.HonestyScore)
	assert.Equal(t, "Jane Doe", result.TailoredResume.FullName)
	require.Len(t, result.Changes, 1)
	assert.True(t, result.Changes[0].Truthful)
	require.Len(t, result.KeywordsNotApplied, 1)
	assert.Equal(t, "Kafka", result.KeywordsNotApplied[0].Term)
}

// TestLLMCoverLetterWriter_Write 求职信走纯文本路径，不做JSON提取
func TestLLMCoverLetterWriter_Write(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "Dear Hiring Team,\n\nI am excited to apply..."}
	writer, err := NewLLMCoverLetterWriter(mockLLM, testLogger())
	require.NoError(t, err)

	letter, err := writer.Write(context.Background(), "jd text", `{"full_name":"Jane Doe"}`, "")
	require.NoError(t, err)
	assert.Contains(t, letter, "Dear Hiring Team,")
}

// TestNewLLMComponents_NilModel 所有组件都拒绝空模型
func TestNewLLMComponents_NilModel(t *testing.T) {
	_, err := NewLLMResumeParser(nil)
	assert.Error(t, err)
	_, err = NewLLMMatchAnalyzer(nil)
	assert.Error(t, err)
	_, err = NewLLMResumeTailor(nil)
	assert.Error(t, err)
	_, err = NewLLMCoverLetterWriter(nil, nil)
	assert.Error(t, err)
}
