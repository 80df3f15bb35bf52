package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractJSONFromResponse 花括号层级匹配，能跳过JSON前后的解释文字
func TestExtractJSONFromResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "纯JSON",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "前后有解释文字",
			input:    "Sure, here is the result:\n{\"a\": {\"b\": 2}}\nHope this helps!",
			expected: `{"a": {"b": 2}}`,
		},
		{
			name:     "嵌套对象取最外层",
			input:    `{"outer": {"inner": {"deep": true}}}`,
			expected: `{"outer": {"inner": {"deep": true}}}`,
		},
		{
			name:     "没有JSON",
			input:    "no json here",
			expected: "",
		},
		{
			name:     "花括号不闭合",
			input:    `{"a": 1`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONFromResponse(tt.input))
		})
	}
}

// TestSanitizeJSON 字符串内部未转义的双引号会被修复
func TestSanitizeJSON(t *testing.T) {
	// summary里的 "Go expert" 带裸引号，原样无法反序列化
	broken := `{"summary": "She is a "Go expert" with 6 years", "score": 1}`
	fixed := sanitizeJSON(broken)

	var dest struct {
		Summary string `json:"summary"`
		Score   int    `json:"score"`
	}
	err := decodeLLMJSON(fixed, &dest)
	require.NoError(t, err)
	assert.Equal(t, `She is a "Go expert" with 6 years`, dest.Summary)
	assert.Equal(t, 1, dest.Score)
}

// TestSanitizeJSON_AlreadyValid 合法JSON经过sanitize后语义不变
func TestSanitizeJSON_AlreadyValid(t *testing.T) {
	valid := `{"a": "hello \"world\"", "b": [1, 2]}`
	assert.Equal(t, valid, sanitizeJSON(valid))
}

// TestDecodeLLMJSON_BOMAndFence 带BOM和Markdown围栏的响应也能解析
func TestDecodeLLMJSON_BOMAndFence(t *testing.T) {
	raw := "\uFEFF```json\n{\"value\": 42}\n```"

	var dest struct {
		Value int `json:"value"`
	}
	err := decodeLLMJSON(raw, &dest)
	require.NoError(t, err)
	assert.Equal(t, 42, dest.Value)
}

// TestDecodeLLMJSON_NoJSON 提取不到JSON时报错
func TestDecodeLLMJSON_NoJSON(t *testing.T) {
	var dest map[string]interface{}
	err := decodeLLMJSON("I cannot answer that.", &dest)
	assert.Error(t, err)
}

// TestCleanText 文本规整：换行统一、空行压缩、行内空白压缩
func TestCleanText(t *testing.T) {
	input := "Jane  Doe\r\n\r\n\r\n\r\nBackend\tEngineer   \r\n  Berlin  "
	expected := "Jane Doe\n\nBackend Engineer\nBerlin"
	assert.Equal(t, expected, CleanText(input))

	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("   \n\n\t  "))
}
