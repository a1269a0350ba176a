package models

import "fmt"

// PageRange is a 1-based inclusive page span within a document.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Pages returns the number of pages covered by the range.
func (r PageRange) Pages() int {
	return r.Last - r.First + 1
}

// Label renders the range as a short partition label, e.g. "p101-200".
func (r PageRange) Label() string {
	return fmt.Sprintf("p%d-%d", r.First, r.Last)
}

// WorkUnit is the atomic granularity of checkpointing: either a whole
// document or one page-range partition of it. A unit is either fully
// completed (converted, chunked, persisted) or not yet attempted.
type WorkUnit struct {
	// Source is the original document path.
	Source string
	// Path is the file handed to the converter. Equal to Source unless the
	// unit is a materialized partition.
	Path string
	// Index is the 1-based ordinal of the containing document within the
	// job's enumeration.
	Index int
	// Siblings is the number of units the containing document produced.
	Siblings int
	// Pages is the page count the unit covers, zero when unknown.
	Pages int
	// Range is set for partitions only.
	Range *PageRange
}

// ID returns the unit's checkpoint identifier. Whole documents use their
// source path; partitions append the page-range label so sibling units
// remain distinct.
func (u WorkUnit) ID() string {
	if u.Range == nil {
		return u.Source
	}
	return u.Source + "#" + u.Range.Label()
}

// PartLabel returns the partition label, or "" for whole documents.
func (u WorkUnit) PartLabel() string {
	if u.Range == nil {
		return ""
	}
	return u.Range.Label()
}
