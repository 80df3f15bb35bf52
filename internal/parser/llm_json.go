package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// extractJSONFromResponse 从LLM输出文本中提取第一个完整的JSON对象。
// 使用花括号层级匹配而非正则，能跳过JSON前后的解释性文字和Markdown标记。
func extractJSONFromResponse(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// stripMarkdownFences 去掉LLM偶尔包裹在JSON外层的```json围栏
func stripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// sanitizeJSON 会遍历 src，将任何位于字符串字面量内部但并非"真正结束"的双引号写成 \"，
// 以保证整个 JSON 在 Go 端能够正常反序列化。
// 它通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断该 " 是否为字符串的结束。
// 反斜杠转义逻辑则正常处理 \\ 和 \"。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				// 遇到非转义的 "，并且当前不在字符串里 -> 开始一个新字符串
				inStr = true
				b.WriteByte(c)
			} else {
				// 当前在字符串里，检查这是不是字符串的真正结束
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				// 如果下一个非空白字符是 JSON 语法里的 :, ], }, 或 ,，说明这才是真正的 string-end
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					// 否则认为这是字符串内部的 "，需要改成 \"
					b.WriteString("\\\"")
				}
			}
			escaped = false

		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)

		} else {
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}

// decodeLLMJSON 从LLM原始输出中提取并反序列化JSON到dest。
// 解析顺序：去BOM/围栏 -> 花括号提取 -> 直接Unmarshal -> 失败后sanitize再试一次。
func decodeLLMJSON(raw string, dest interface{}) error {
	processed := strings.TrimPrefix(raw, "\uFEFF")
	processed = stripMarkdownFences(processed)

	jsonStr := extractJSONFromResponse(processed)
	if jsonStr == "" {
		return fmt.Errorf("无法从LLM响应中提取JSON: %s", processed)
	}

	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	// ① 正常解析
	if err := json.Unmarshal([]byte(jsonStr), dest); err != nil {
		// ② 解析失败 -> 自动修复再试一次
		fixedJSONStr := sanitizeJSON(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixedJSONStr), dest); jsonErr != nil {
			return fmt.Errorf("反序列化LLM JSON失败（含修复重试）。原始错误: %w; 修复后错误: %v; JSON: %s", err, jsonErr, jsonStr)
		}
	}
	return nil
}
