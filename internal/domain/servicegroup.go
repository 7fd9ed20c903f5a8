package domain

import (
	smp "github.com/totegamma/smp"
)

// ServiceGroup is the root registration of one participant on this SMP.
type ServiceGroup struct {
	ID        smp.Identifier `json:"id"`
	OwnerID   string         `json:"ownerId"`
	Extension string         `json:"extension,omitempty"`
}

// ServiceGroupFilter narrows ServiceGroupStore.List. Zero fields match all.
type ServiceGroupFilter struct {
	OwnerID string
}

func (f ServiceGroupFilter) Match(sg ServiceGroup) bool {
	return f.OwnerID == "" || f.OwnerID == sg.OwnerID
}

// CompleteServiceGroup aggregates a service group with all its metadata.
type CompleteServiceGroup struct {
	ServiceGroup ServiceGroup
	Metadata     []ServiceMetadata
}

// Change reports whether a delete removed anything.
type Change int

const (
	Unchanged Change = iota
	Changed
)

func (c Change) IsChanged() bool {
	return c == Changed
}
