package tle

import "time"

// Entry is one satellite's two-line element set.
type Entry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Dataset is the element set currently used for propagation, with fetch metadata.
type Dataset struct {
	Source    string
	FetchedAt time.Time
	Entry     Entry
}
