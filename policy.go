package webchunk

import (
	"regexp"
	"strings"
)

var tagNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// SelectionPolicy decides which elements contribute extracted text.
// An empty Tags list is valid and selects nothing. An empty ClassFilter
// means no class restriction.
type SelectionPolicy struct {
	Tags        []string `json:"tags" yaml:"tags"`
	ClassFilter []string `json:"classFilter,omitempty" yaml:"class_filter,omitempty"`
}

// DefaultSelectionPolicy selects headings and paragraphs.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		Tags: []string{"h1", "h2", "h3", "h4", "h5", "h6", "p"},
	}
}

// Validate returns an error if the policy names a blank or malformed tag,
// or a blank class.
func (p SelectionPolicy) Validate() error {
	for _, tag := range p.Tags {
		if !tagNameRe.MatchString(tag) {
			return Errorf(EINVALID, "invalid tag %q in selection policy", tag)
		}
	}
	for _, class := range p.ClassFilter {
		if strings.TrimSpace(class) == "" || strings.ContainsAny(class, " \t\r\n\f") {
			return Errorf(EINVALID, "invalid class %q in selection policy", class)
		}
	}
	return nil
}

// MatchesTag reports whether the element name is selected.
// Comparison is case-insensitive.
func (p SelectionPolicy) MatchesTag(name string) bool {
	for _, tag := range p.Tags {
		if strings.EqualFold(tag, name) {
			return true
		}
	}
	return false
}

// MatchesClass reports whether a class attribute value satisfies the class
// filter. Without a filter every element matches.
func (p SelectionPolicy) MatchesClass(classAttr string) bool {
	if len(p.ClassFilter) == 0 {
		return true
	}
	for _, class := range strings.Fields(classAttr) {
		for _, want := range p.ClassFilter {
			if class == want {
				return true
			}
		}
	}
	return false
}
