// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

// IsOwner reports whether the acting user authored a resource.
// Anonymous viewers (id 0) own nothing.
func IsOwner(authorID, viewerID int64) bool {
	return viewerID != 0 && authorID == viewerID
}
