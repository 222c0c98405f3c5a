package common

import "strings"

// IndexTerm returns the byte offset of the first standalone occurrence of
// term in s, or -1. A term starting or ending with an ASCII letter or digit
// only matches where the neighbouring byte is not of the same class, so
// "pe" is not found in "open" and "666" is not found in "600666". CJK edges
// match anywhere.
func IndexTerm(s, term string) int {
	if term == "" {
		return -1
	}
	for from := 0; from <= len(s)-len(term); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return -1
		}
		i += from
		if standalone(s, i, i+len(term)) {
			return i
		}
		from = i + 1
	}
	return -1
}

// ContainsTerm reports whether term occurs standalone in s
func ContainsTerm(s, term string) bool {
	return IndexTerm(s, term) >= 0
}

// RemoveTerm deletes every standalone occurrence of term from s
func RemoveTerm(s, term string) string {
	if term == "" {
		return s
	}
	var b strings.Builder
	for {
		i := IndexTerm(s, term)
		if i < 0 {
			break
		}
		b.WriteString(s[:i])
		s = s[i+len(term):]
	}
	b.WriteString(s)
	return b.String()
}

func standalone(s string, start, end int) bool {
	if c := asciiClass(s[start]); c != 0 && start > 0 && asciiClass(s[start-1]) == c {
		return false
	}
	if c := asciiClass(s[end-1]); c != 0 && end < len(s) && asciiClass(s[end]) == c {
		return false
	}
	return true
}

// asciiClass is 1 for letters, 2 for digits, 0 otherwise
func asciiClass(b byte) int {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return 1
	case b >= '0' && b <= '9':
		return 2
	}
	return 0
}
