package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxGroups is the hard capacity ceiling for live groups, including
	// the default group. Baked into the persisted chunk layout.
	MaxGroups = 32

	// MaxGroupNameLen is the display-name length limit.
	MaxGroupNameLen = 50

	// DefaultGroupID identifies the one mandatory group. Exactly one
	// group carries this id at all times.
	DefaultGroupID = "ungrouped"

	// DefaultGroupName is the display name of the mandatory group.
	DefaultGroupName = "Ungrouped"

	// DefaultGroupColor is the display color of the mandatory group.
	DefaultGroupColor = "#9aa0a6"
)

// Group represents a named bucket of URLs.
type Group struct {
	// ID is the canonical unique identifier.
	ID string `json:"id"`

	// Name is displayed. Need not be globally unique.
	Name string `json:"name"`

	// IsDefault is true only for the mandatory group.
	IsDefault bool `json:"isDefault"`

	// Protected groups cannot be deleted, renamed, or reordered away
	// from position 0. True for the mandatory group.
	Protected bool `json:"protected"`

	// Color is a display hex code like "#ff8800".
	Color string `json:"color"`

	// Description is free display text.
	Description string `json:"description,omitempty"`

	// URLCount is a cached, derived count. Never authoritative: the
	// integrity pass recomputes it from the URL set before use.
	URLCount int `json:"urlCount"`

	// Order is the integer position among groups. The default group is
	// pinned to 0.
	Order float64 `json:"order"`

	// Created is the record creation time.
	Created time.Time `json:"created"`

	// LastModified is bumped on every mutation.
	LastModified time.Time `json:"lastModified"`
}

// NewGroup builds a user-defined group.
func NewGroup(name, color, description string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxGroupNameLen {
		return nil, fmt.Errorf("%w: group name must be 1-%d characters", ErrInvalidRecord, MaxGroupNameLen)
	}
	if color == "" {
		color = DefaultGroupColor
	}
	now := time.Now().UTC()
	return &Group{
		ID:           uuid.NewString(),
		Name:         name,
		Color:        color,
		Description:  description,
		Created:      now,
		LastModified: now,
	}, nil
}

// DefaultGroup synthesizes the mandatory group. The integrity pass inserts
// it at the front of the group list whenever it is absent.
func DefaultGroup() *Group {
	now := time.Now().UTC()
	return &Group{
		ID:           DefaultGroupID,
		Name:         DefaultGroupName,
		IsDefault:    true,
		Protected:    true,
		Color:        DefaultGroupColor,
		Order:        0,
		Created:      now,
		LastModified: now,
	}
}

// Touch bumps LastModified. Call it on every mutation.
func (g *Group) Touch() {
	g.LastModified = time.Now().UTC()
}

// Validate checks field-level invariants. Failures are advisory.
func (g *Group) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("group record: %w: empty id", ErrInvalidRecord)
	}
	if strings.TrimSpace(g.Name) == "" || len(g.Name) > MaxGroupNameLen {
		return fmt.Errorf("group record %s: %w: name must be 1-%d characters", g.ID, ErrInvalidRecord, MaxGroupNameLen)
	}
	if !validHexColor(g.Color) {
		return fmt.Errorf("group record %s: %w: color %q is not a 6-digit hex code", g.ID, ErrInvalidRecord, g.Color)
	}
	return nil
}

// Clone returns a copy safe to hand outside the session lock.
func (g *Group) Clone() *Group {
	c := *g
	return &c
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
