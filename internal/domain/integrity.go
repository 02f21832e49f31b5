package domain

import (
	"github.com/kazmiyai/favuls/internal/logger"
)

// Report describes what an integrity pass had to repair. Callers must
// persist immediately when HasChanges is true so the repaired state, not
// the raw loaded state, becomes durable.
type Report struct {
	HasChanges  bool
	URLsFixed   int
	GroupsFixed int
}

// Validator runs the repair pass over a loaded (groups, urls) pair.
// Repairs are silent toward the user; advisory validation failures are
// logged for diagnostics only.
type Validator struct {
	log logger.Logger
}

func NewValidator(log logger.Logger) *Validator {
	return &Validator{log: log}
}

// Repair brings the pair into a valid state and reports whether anything
// changed. The step order matters: the default group must exist before
// dangling references can be rewritten to it.
//
// Returns the (possibly re-sliced) group list; the URL slice is repaired
// in place.
func (v *Validator) Repair(groups []*Group, urls []*URL) ([]*Group, Report) {
	var rep Report

	groups = v.ensureDefaultGroup(groups, &rep)
	v.fixDanglingReferences(groups, urls, &rep)
	v.selfValidate(groups, urls)
	v.recountURLs(groups, urls, &rep)

	return groups, rep
}

// ensureDefaultGroup synthesizes the mandatory group when absent, coerces
// its flags when drifted, and drops impostor duplicates.
func (v *Validator) ensureDefaultGroup(groups []*Group, rep *Report) []*Group {
	var def *Group
	kept := groups[:0]
	for _, g := range groups {
		if g.ID != DefaultGroupID {
			kept = append(kept, g)
			continue
		}
		if def == nil {
			def = g
			continue
		}
		// Duplicate default group: keep the first, drop the rest.
		rep.HasChanges = true
		rep.GroupsFixed++
		v.log.Warn("dropping duplicate default group record")
	}

	if def == nil {
		def = DefaultGroup()
		rep.HasChanges = true
		rep.GroupsFixed++
		v.log.Info("default group missing, recreating it")
	} else if !def.IsDefault || !def.Protected || def.Name == "" || def.Order != 0 {
		def.IsDefault = true
		def.Protected = true
		def.Order = 0
		if def.Name == "" {
			def.Name = DefaultGroupName
		}
		rep.HasChanges = true
		rep.GroupsFixed++
		v.log.Info("default group flags drifted, coercing them back")
	}

	return append([]*Group{def}, kept...)
}

// fixDanglingReferences rewrites every orphaned GroupID to the default
// group. An empty GroupID counts as orphaned.
func (v *Validator) fixDanglingReferences(groups []*Group, urls []*URL, rep *Report) {
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}

	for _, u := range urls {
		if known[u.GroupID] {
			continue
		}
		v.log.Warn("bookmark references missing group, reassigning to default",
			logger.String("url_id", u.ID),
			logger.String("group_id", u.GroupID))
		u.GroupID = DefaultGroupID
		u.Touch()
		rep.HasChanges = true
		rep.URLsFixed++
	}
}

// selfValidate runs each record's own field validator. Failures are
// advisory: logged, never destructive.
func (v *Validator) selfValidate(groups []*Group, urls []*URL) {
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			v.log.Warn("group failed self-validation", logger.Error(err))
		}
	}
	for _, u := range urls {
		if err := u.Validate(); err != nil {
			v.log.Warn("bookmark failed self-validation", logger.Error(err))
		}
	}
}

// recountURLs recomputes every group's cached URLCount from the URL set,
// overriding whatever was persisted.
func (v *Validator) recountURLs(groups []*Group, urls []*URL, rep *Report) {
	counts := make(map[string]int, len(groups))
	for _, u := range urls {
		counts[u.GroupID]++
	}
	for _, g := range groups {
		if g.URLCount != counts[g.ID] {
			g.URLCount = counts[g.ID]
			rep.HasChanges = true
		}
	}
}
