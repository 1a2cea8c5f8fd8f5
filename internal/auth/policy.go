// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// commonPasswords is a short list of passwords refused at registration.
var commonPasswords = map[string]bool{
	"password":   true,
	"password1":  true,
	"12345678":   true,
	"123456789":  true,
	"1234567890": true,
	"qwerty123":  true,
	"qwertyuiop": true,
	"iloveyou":   true,
	"11111111":   true,
	"abc12345":   true,
	"letmein1":   true,
	"welcome1":   true,
	"admin123":   true,
	"passw0rd":   true,
	"sunshine":   true,
	"football":   true,
	"baseball":   true,
	"princess":   true,
	"superman":   true,
	"trustno1":   true,
}

// ValidateUsername returns a user-facing problem with username, or "".
func ValidateUsername(username string) string {
	switch {
	case username == "":
		return "Username is required"
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return "Username must be at most 150 characters"
	case !usernamePattern.MatchString(username):
		return "Username may contain only letters, digits and @/./+/-/_"
	}
	return ""
}

// ValidateNewPassword returns every problem with a new password, in order.
// An empty slice means the password is acceptable.
func ValidateNewPassword(password, confirmation, username string) []string {
	var problems []string

	if password != confirmation {
		problems = append(problems, "The two password fields didn't match")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters")
	}
	if password != "" && isAllDigits(password) {
		problems = append(problems, "This password is entirely numeric")
	}
	if commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "This password is too common")
	}
	if username != "" && strings.EqualFold(password, username) {
		problems = append(problems, "The password is too similar to the username")
	}

	return problems
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
