package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxContentLength 评论和帖子正文的长度上限（字符数）
const MaxContentLength = 10000

// 用户内容的消毒白名单：基础行内/格式化标签，链接只留 href/title/target，
// span 留 class（代码高亮用）
var contentPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "code", "pre", "p",
		"ul", "ol", "li", "a", "span", "br", "h1", "h2", "h3")
	p.AllowAttrs("href", "title", "target").OnElements("a")
	p.AllowAttrs("class").OnElements("span")
	p.AllowURLSchemes("http", "https")
	return p
}()

// SanitizeContent 消毒用户提交的 HTML。
// 长度检查在消毒之前：超长输入直接拒绝，不浪费消毒开销，
// 错误里也能报出原始长度。
func SanitizeContent(content string) (string, error) {
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return "", fmt.Errorf("%w: %d chars (max %d)", ErrContentTooLarge, n, MaxContentLength)
	}
	return contentPolicy.Sanitize(content), nil
}
