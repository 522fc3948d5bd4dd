// Package boneids parses the bone id lists typed by users, such as
// "3,4,21,10" or "0x03; 0x04, 0x15".
package boneids

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyList is returned when the input names no bones.
var ErrEmptyList = errors.New("empty bone list")

// Parse splits s on commas and semicolons and parses each item as an integer.
// Whitespace is ignored. Items may use 0x, 0o or 0b prefixes; a plain number
// with a leading zero is decimal. Range checking is left to the caller so
// that out-of-range ids can be reported individually.
func Parse(s string) ([]int, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		case ';':
			return ','
		}
		return r
	}, s)
	if s == "" {
		return nil, ErrEmptyList
	}

	items := strings.Split(s, ",")
	ids := make([]int, 0, len(items))
	for _, item := range items {
		id, err := parseItem(item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseItem(item string) (int, error) {
	if item == "" {
		return 0, fmt.Errorf("empty item in bone list")
	}

	base := 0
	digits := strings.TrimPrefix(item, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9' {
		base = 10
	}

	v, err := strconv.ParseInt(item, base, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid bone id %q: %w", item, err)
	}
	return int(v), nil
}
