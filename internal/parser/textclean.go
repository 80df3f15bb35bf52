package parser

import (
	"regexp"
	"strings"
)

var (
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	spaceTabRunRe  = regexp.MustCompile(`[ \t]+`)
)

// CleanText 规整提取器输出的原始文本，供LLM解析前使用：
// 统一换行符、压缩连续空行为最多一个空行、压缩行内空白、去掉首尾空白。
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	cleaned = spaceTabRunRe.ReplaceAllString(cleaned, " ")

	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	cleaned = strings.Join(lines, "\n")
	cleaned = multiNewlineRe.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
