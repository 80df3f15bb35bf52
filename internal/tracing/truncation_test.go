package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMaskPII 不同长度的敏感值保留首尾、掩码中间
func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	assert.Equal(t, "13*******78", MaskPII("13812345678"))

	masked := MaskPII("myemail@example.com")
	assert.True(t, strings.HasPrefix(masked, "my"))
	assert.True(t, strings.HasSuffix(masked, "om"))
	assert.NotContains(t, masked, "@")
}

// TestSafeAttributeValue 敏感属性名触发掩码，普通属性只做截断
func TestSafeAttributeValue(t *testing.T) {
	// "file_name"包含敏感关键字name
	masked := SafeAttributeValue("file_name", "jane-doe-resume.pdf", DefaultMaxLength)
	assert.NotEqual(t, "jane-doe-resume.pdf", masked)
	assert.Contains(t, masked, "*")

	long := strings.Repeat("x", DefaultMaxLength+50)
	safe := SafeAttributeValue("job_title", long, DefaultMaxLength)
	assert.LessOrEqual(t, len(safe), DefaultMaxLength)
	assert.Contains(t, safe, "...")
}

// TestTruncateString 不超长原样返回，超长时保留首尾
func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))

	out := TruncateString(strings.Repeat("a", 100)+strings.Repeat("b", 100), 20)
	assert.LessOrEqual(t, len(out), 20)
	assert.True(t, strings.HasPrefix(out, "a"))
	assert.True(t, strings.HasSuffix(out, "b"))
}

// TestSafeHelperLimits 各专用包装遵守对应的长度上限
func TestSafeHelperLimits(t *testing.T) {
	assert.LessOrEqual(t, len(SafeSQL(strings.Repeat("s", 2000))), MaxSQLLength)
	assert.LessOrEqual(t, len(SafeRedisKey(strings.Repeat("k", 500))), MaxRedisLength)
	assert.LessOrEqual(t, len(SafeResumeContent(strings.Repeat("r", 500))), MaxResumeLength)
	assert.LessOrEqual(t, len(SafePrompt(strings.Repeat("p", 1000))), MaxPromptLength)
}
