// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup turns user text into safe HTML.
package markup

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	// ugc allows the formatting Markdown produces and strips scripts,
	// event handlers and unsafe URLs.
	ugc = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()

	strict = bluemonday.StrictPolicy()
)

// Post renders Markdown post text to sanitized HTML.
func Post(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return Comment(text)
	}
	return template.HTML(ugc.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// Comment renders plain comment text: all markup is stripped and line
// breaks become <br>.
func Comment(text string) template.HTML {
	clean := strict.Sanitize(text)
	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(clean, "\n", "<br>\n")) //nolint:gosec // sanitized above
}

// PlainText strips all markup from rendered Markdown.
func PlainText(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return strings.TrimSpace(strict.Sanitize(text))
	}
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(buf.String()))), " ")
}

// Excerpt returns at most n characters of the post's plain text, cut at a
// word boundary and suffixed with an ellipsis when shortened.
func Excerpt(text string, n int) string {
	plain := PlainText(text)
	if n <= 0 || utf8.RuneCountInString(plain) <= n {
		return plain
	}
	runes := []rune(plain)[:n]
	for i := len(runes) - 1; i > n/2; i-- {
		if runes[i] == ' ' {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimRight(string(runes), " ,.;:") + "…"
}
