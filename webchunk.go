// Package webchunk provides a pipeline that fetches web pages, extracts
// readable text from selected HTML elements, splits that text into
// overlapping chunks, and persists the result as flat records for
// downstream indexing.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package webchunk
