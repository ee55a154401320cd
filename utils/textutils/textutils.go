// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds small string helpers shared by the geocoding cache and the CLI.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding removes accents, lowercases, and collapses runs of white space.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToLower(s),
	)

	return strings.Join(strings.Fields(s), " ")
}

// FormatInt formats n with a comma every three digits.
func FormatInt(n int64) string {
	digits := strconv.FormatInt(n, 10)

	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var sb strings.Builder

	sb.WriteString(sign)

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	sb.WriteString(digits[:head])

	for i := head; i < len(digits); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(digits[i : i+3])
	}

	return sb.String()
}
