// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog holds the publishing rules shared by the store and the HTTP
// handlers: who may see a post, who may change it, how listings are paged and
// what a valid post or comment submission looks like.
//
// Everything here is pure. Callers pass the viewer and the current time in
// explicitly so the rules can be tested without a database or a request.
package blog

import "time"

// Candidate describes the fields of a post that the visibility rule reads.
type Candidate struct {
	AuthorID          int64
	IsPublished       bool
	PubDate           time.Time
	HasCategory       bool
	CategoryPublished bool
}

// IsPublic reports whether a post is visible to readers other than its author.
// A post without a category is never public.
func (c Candidate) IsPublic(now time.Time) bool {
	return c.IsPublished &&
		!c.PubDate.After(now) &&
		c.HasCategory &&
		c.CategoryPublished
}

// IsVisible reports whether the viewer may see the post at time now.
// viewerID is 0 for anonymous readers.
func IsVisible(c Candidate, viewerID int64, now time.Time) bool {
	if IsOwner(c.AuthorID, viewerID) {
		return true
	}
	return c.IsPublic(now)
}
