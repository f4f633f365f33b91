// Package redact 提供 PII 脱敏过滤器。
//
// 过滤器是纯字符串函数，在原始模型输出或诊断信息进入日志、审计存储之前调用。
// 调用方不能假设脱敏一定发生：策略可配置，可以关闭（[None]）。
package redact

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxRawLength 是日志中原始文本的最大字节数。
const MaxRawLength = 1024

// TruncatedMarker 追加在被截断文本之后。
const TruncatedMarker = "…[truncated]"

// Redactor 把文本映射为可安全输出的文本。
type Redactor func(string) string

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// 按顺序依次替换；卡号在电话之前，否则长数字串会先被电话规则截走。
var rules = []rule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL_REDACTED]"},
	{regexp.MustCompile(`\b\d{12,16}\b`), "[CARD_NUMBER_REDACTED]"},
	{regexp.MustCompile(`(?:\+\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}`), "[PHONE_REDACTED]"},
	{regexp.MustCompile(`(?i)(?:api[_-]?key|token)['"\s]*[:=]\s*['"\s]*\w{20,}`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]+ PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+ PRIVATE KEY-----`), "[PRIVATE_KEY_REDACTED]"},
}

// PII 替换邮箱、电话、卡号、API key 与私钥。
func PII(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}

// None 原样返回文本。
func None(text string) string { return text }

// ContainsSensitive 报告 text 是否命中任一脱敏规则。
func ContainsSensitive(text string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Truncate 把 text 截断到 MaxRawLength 字节（不切断 UTF-8 字符）并追加标记。
func Truncate(text string) string {
	if len(text) <= MaxRawLength {
		return text
	}
	cut := MaxRawLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncatedMarker
}

// Apply 先脱敏再截断；r 为 nil 时只截断。
func (r Redactor) Apply(text string) string {
	if r != nil {
		text = r(text)
	}
	return Truncate(text)
}

// String 返回经过 Apply 处理的 zap 字段。
func (r Redactor) String(key, text string) zap.Field {
	return zap.String(key, r.Apply(text))
}

// Error 返回消息经过 PII 脱敏的新错误。结果不暴露原错误的消息，
// 但 errors.Is 仍按原错误判断。
func Error(err error) error {
	if err == nil {
		return nil
	}
	return &redactedError{msg: PII(err.Error()), orig: err}
}

type redactedError struct {
	msg  string
	orig error
}

func (e *redactedError) Error() string { return e.msg }

// Is 让 errors.Is 仍能识别原错误（例如按错误码比较）。
func (e *redactedError) Is(target error) bool { return errors.Is(e.orig, target) }
