package utils

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	renderPolicy = bluemonday.UGCPolicy()
)

func init() {
	renderPolicy.AllowImages()
	// 外部链接新标签页打开，并带 noreferrer
	renderPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	renderPolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 把帖子/评论的 markdown 渲染成消毒过的 HTML。
// 渲染失败时退回转义后的原文，不让一条坏帖子打断整页。
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return renderPolicy.Sanitize(source)
	}

	sanitized := renderPolicy.SanitizeBytes(buf.Bytes())
	return hardenHTML(string(sanitized))
}

// hardenHTML 给图片补上防外链追踪和懒加载属性，
// 给站外链接补 rel="noopener noreferrer"
func hardenHTML(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http") {
			s.SetAttr("rel", "noopener noreferrer")
		}
	})

	// goquery 会补全 html/body 骨架，只取 body 内容
	out, _ := doc.Find("body").Html()
	if out == "" {
		out, _ = doc.Html()
	}
	return out
}
