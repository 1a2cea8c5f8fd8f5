// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits carried over from the schema.
const (
	MaxTitleLength = 256
	MaxTextLength  = 20000
	MaxImageLength = 512
)

// PubDateLayout is the wire format of an HTML datetime-local input.
const PubDateLayout = "2006-01-02T15:04"

// FormErrors maps a field name to a user-facing message.
// The key "form" holds errors that do not belong to a single field.
type FormErrors map[string]string

// Add records the first error for a field.
func (e FormErrors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Has reports whether the field failed validation.
func (e FormErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for a field, or "".
func (e FormErrors) Get(field string) string {
	return e[field]
}

// Any reports whether validation failed at all.
func (e FormErrors) Any() bool {
	return len(e) > 0
}

// PostForm is a post submission as typed by the author.
type PostForm struct {
	Title       string
	Text        string
	PubDate     string
	CategoryID  int64
	LocationID  int64
	Image       string
	IsPublished bool
}

// PostInput is a validated post submission.
type PostInput struct {
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  int64
	LocationID  int64
	Image       string
	IsPublished bool
}

// ReferenceChecker confirms that referenced rows exist.
type ReferenceChecker interface {
	CategoryExists(id int64) bool
	LocationExists(id int64) bool
}

// ValidatePost checks a post submission. pub_date is interpreted in loc and
// returned in UTC, truncated to the second. A future pub_date is refused for
// a post that is not being published.
func ValidatePost(f PostForm, refs ReferenceChecker, loc *time.Location, now time.Time) (PostInput, FormErrors) {
	errs := FormErrors{}
	in := PostInput{
		Title:       strings.TrimSpace(f.Title),
		Text:        strings.TrimSpace(f.Text),
		CategoryID:  f.CategoryID,
		LocationID:  f.LocationID,
		Image:       strings.TrimSpace(f.Image),
		IsPublished: f.IsPublished,
	}

	switch {
	case in.Title == "":
		errs.Add("title", "Title is required")
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		errs.Add("title", "Title must be at most 256 characters")
	}

	switch {
	case in.Text == "":
		errs.Add("text", "Text is required")
	case utf8.RuneCountInString(in.Text) > MaxTextLength:
		errs.Add("text", "Text is too long")
	}

	if loc == nil {
		loc = time.UTC
	}
	pubDate, err := time.ParseInLocation(PubDateLayout, strings.TrimSpace(f.PubDate), loc)
	if err != nil {
		errs.Add("pub_date", "Enter a valid date and time")
	} else {
		in.PubDate = pubDate.UTC().Truncate(time.Second)
		if in.PubDate.After(now) && in.IsPublished {
			errs.Add("pub_date", "A published post cannot have a publication date in the future")
		}
	}

	if in.CategoryID != 0 && (refs == nil || !refs.CategoryExists(in.CategoryID)) {
		errs.Add("category", "Select a valid category")
	}
	if in.LocationID != 0 && (refs == nil || !refs.LocationExists(in.LocationID)) {
		errs.Add("location", "Select a valid location")
	}

	if in.Image != "" {
		if len(in.Image) > MaxImageLength || !isSafeImageRef(in.Image) {
			errs.Add("image", "Enter a valid image URL")
		}
	}

	return in, errs
}

// isSafeImageRef accepts http(s) URLs and site-relative paths.
func isSafeImageRef(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return u.Host == "" && strings.HasPrefix(u.Path, "/") && !strings.HasPrefix(s, "//")
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateComment trims and checks comment text.
func ValidateComment(text string) (string, FormErrors) {
	errs := FormErrors{}
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		errs.Add("text", "Comment text is required")
	case utf8.RuneCountInString(text) > MaxTextLength:
		errs.Add("text", "Comment is too long")
	}
	return text, errs
}

// FormatPubDate renders a stored pub_date back into a datetime-local value.
func FormatPubDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(PubDateLayout)
}
