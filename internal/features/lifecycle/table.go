package lifecycle

import (
	"math"
	"sort"

	"freight-booking/internal/core/auth"
)

// Status is the constraint satisfied by every entity status enum.
type Status interface {
	~string
}

// Definition describes one entity's state machine.
type Definition[S Status] struct {
	// Entity names the entity in errors, logs and metrics ("booking", "shipment").
	Entity string
	// Initial is the status assigned at creation.
	Initial S
	// Confirmed is the status on which a tracking number may be issued.
	Confirmed S
	// Cancelled is the target of the cancel path.
	Cancelled S
	// Next maps each status to the statuses reachable in one step.
	// A status mapped to an empty set is terminal.
	Next map[S][]S
	// Roles lists the roles allowed to move an entity into a target status.
	// Targets without an entry fall back to DefaultRoles.
	Roles map[S][]auth.Role
	// DefaultRoles applies to targets without their own role set.
	DefaultRoles []auth.Role
	// Deletable lists the statuses in which a non-admin may soft delete.
	Deletable []S
	// Stages is the canonical forward path used for progress. Statuses sharing a
	// stage (alternative loading routes) are listed together.
	Stages [][]S
}

// Table is a compiled, read-only Definition.
type Table[S Status] struct {
	def       Definition[S]
	next      map[S]map[S]bool
	deletable map[S]bool
	stage     map[S]int
}

// NewTable compiles def. The definition must not be modified afterwards.
func NewTable[S Status](def Definition[S]) *Table[S] {
	t := &Table[S]{
		def:       def,
		next:      make(map[S]map[S]bool, len(def.Next)),
		deletable: make(map[S]bool, len(def.Deletable)),
		stage:     make(map[S]int),
	}
	for from, targets := range def.Next {
		set := make(map[S]bool, len(targets))
		for _, to := range targets {
			set[to] = true
		}
		t.next[from] = set
	}
	for _, s := range def.Deletable {
		t.deletable[s] = true
	}
	for i, stage := range def.Stages {
		for _, s := range stage {
			t.stage[s] = i
		}
	}
	return t
}

// Entity returns the entity name.
func (t *Table[S]) Entity() string { return t.def.Entity }

// Initial returns the creation status.
func (t *Table[S]) Initial() S { return t.def.Initial }

// Confirmed returns the status on which tracking numbers are issued.
func (t *Table[S]) Confirmed() S { return t.def.Confirmed }

// Cancelled returns the cancellation status.
func (t *Table[S]) Cancelled() S { return t.def.Cancelled }

// Known reports whether s appears in the table.
func (t *Table[S]) Known(s S) bool {
	_, ok := t.next[s]
	return ok
}

// Statuses returns every status in the table: the canonical path in stage
// order, then off-path statuses sorted by name.
func (t *Table[S]) Statuses() []S {
	seen := make(map[S]bool, len(t.next))
	var out []S
	for _, stage := range t.def.Stages {
		for _, s := range stage {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	var rest []S
	for s := range t.next {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Allowed returns the statuses reachable from s in one step, in table order.
func (t *Table[S]) Allowed(s S) []S {
	targets := t.def.Next[s]
	out := make([]S, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether to is reachable from from in one step.
func (t *Table[S]) CanTransition(from, to S) bool {
	return t.next[from][to]
}

// IsTerminal reports whether s has no outbound transitions.
func (t *Table[S]) IsTerminal(s S) bool {
	return t.Known(s) && len(t.next[s]) == 0
}

// RolesFor returns the roles allowed to enter target.
func (t *Table[S]) RolesFor(target S) []auth.Role {
	if roles, ok := t.def.Roles[target]; ok {
		return roles
	}
	return t.def.DefaultRoles
}

// Deletable reports whether non-admins may soft delete an entity in s.
func (t *Table[S]) Deletable(s S) bool {
	return t.deletable[s]
}

// Progress returns the 0-100 position of s on the canonical path.
// Statuses off the path report 0.
func (t *Table[S]) Progress(s S) int {
	idx, ok := t.stage[s]
	if !ok || len(t.def.Stages) < 2 {
		return 0
	}
	return int(math.Round(float64(idx) / float64(len(t.def.Stages)-1) * 100))
}
