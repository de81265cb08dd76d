// Package rpath implements the canonical internal key-path used to address
// locations inside a merged parameter tree.
package rpath

import "strings"

// Separator delimits segments in a path's string form, both for
// user-facing "a:b:c" syntax and for the ${...} reference grammar.
const Separator = ":"

// Path is an ordered sequence of string segments. Two paths are equal iff
// they have the same length and identical segments at every position. A
// segment's normalized form never contains Separator.
type Path []string

// Parse splits s on Separator into a Path. An empty string parses to the
// empty (root) Path.
func Parse(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, Separator)
	p := make(Path, len(parts))
	copy(p, parts)
	return p
}

// String renders the path back into "a:b:c" display form.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Append returns a new Path with segment appended. The receiver is left
// unmodified.
func (p Path) Append(segment string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = segment
	return out
}

// Child is an alias of Append kept for readability at call sites that walk
// downward into a mapping.
func (p Path) Child(segment string) Path { return p.Append(segment) }

// Parent returns the path with its final segment removed, and whether a
// parent existed (false for the empty path).
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out, true
}

// Last returns the final segment and whether the path is non-empty.
func (p Path) Last() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[len(p)-1], true
}

// Empty reports whether the path has no segments (addresses the root).
func (p Path) Empty() bool { return len(p) == 0 }

// Equal reports whether p and o address the same location.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix's segments match p's leading segments.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}
