package domain

import (
	"testing"

	"github.com/kazmiyai/favuls/internal/logger"
)

func newTestValidator() *Validator {
	return NewValidator(logger.Nop())
}

func TestRepairSynthesizesMissingDefaultGroup(t *testing.T) {
	v := newTestValidator()

	groups, rep := v.Repair([]*Group{{ID: "g1", Name: "one", Color: DefaultGroupColor}}, nil)

	if !rep.HasChanges {
		t.Error("Repair() reported no changes after synthesizing default group")
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	def := groups[0]
	if def.ID != DefaultGroupID || !def.IsDefault || !def.Protected || def.Order != 0 {
		t.Errorf("default group not synthesized correctly: %+v", def)
	}
}

func TestRepairCoercesDriftedDefaultFlags(t *testing.T) {
	v := newTestValidator()
	drifted := &Group{ID: DefaultGroupID, Name: DefaultGroupName, Color: DefaultGroupColor, Protected: false, IsDefault: false, Order: 4}

	groups, rep := v.Repair([]*Group{drifted}, nil)

	if !rep.HasChanges || rep.GroupsFixed == 0 {
		t.Error("Repair() did not report the flag coercion")
	}
	def := groups[0]
	if !def.IsDefault || !def.Protected || def.Order != 0 {
		t.Errorf("flags not coerced: %+v", def)
	}
}

func TestRepairDropsDuplicateDefaultGroups(t *testing.T) {
	v := newTestValidator()
	first := DefaultGroup()
	dup := DefaultGroup()
	dup.Name = "Impostor"

	groups, rep := v.Repair([]*Group{first, dup}, nil)

	if !rep.HasChanges {
		t.Error("Repair() reported no changes after dropping a duplicate")
	}
	count := 0
	for _, g := range groups {
		if g.ID == DefaultGroupID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("default group count = %d, want 1", count)
	}
	if groups[0].Name != DefaultGroupName {
		t.Errorf("kept the wrong duplicate: %q", groups[0].Name)
	}
}

func TestRepairFixesDanglingReferences(t *testing.T) {
	v := newTestValidator()
	orphan := urlWithOrder("a", "deleted-group", 1)
	fine := urlWithOrder("b", DefaultGroupID, 2)

	_, rep := v.Repair([]*Group{DefaultGroup()}, []*URL{orphan, fine})

	if rep.URLsFixed != 1 {
		t.Errorf("URLsFixed = %d, want 1", rep.URLsFixed)
	}
	if orphan.GroupID != DefaultGroupID {
		t.Errorf("orphan group id = %q, want default", orphan.GroupID)
	}
	if fine.GroupID != DefaultGroupID {
		t.Errorf("valid record was rewritten: %q", fine.GroupID)
	}
}

func TestRepairTreatsEmptyGroupIDAsOrphan(t *testing.T) {
	v := newTestValidator()
	u := urlWithOrder("a", "", 1)

	_, rep := v.Repair([]*Group{DefaultGroup()}, []*URL{u})

	if rep.URLsFixed != 1 || u.GroupID != DefaultGroupID {
		t.Errorf("empty group id not reassigned: fixed=%d group=%q", rep.URLsFixed, u.GroupID)
	}
}

func TestRepairRecountsURLCounts(t *testing.T) {
	v := newTestValidator()
	def := DefaultGroup()
	def.URLCount = 42
	urls := []*URL{
		urlWithOrder("a", DefaultGroupID, 1),
		urlWithOrder("b", DefaultGroupID, 2),
	}

	groups, rep := v.Repair([]*Group{def}, urls)

	if !rep.HasChanges {
		t.Error("Repair() reported no changes after recount")
	}
	if groups[0].URLCount != 2 {
		t.Errorf("URLCount = %d, want 2", groups[0].URLCount)
	}
}

func TestRepairCleanStateIsNoop(t *testing.T) {
	v := newTestValidator()
	def := DefaultGroup()
	def.URLCount = 1
	urls := []*URL{urlWithOrder("a", DefaultGroupID, 1)}

	_, rep := v.Repair([]*Group{def}, urls)

	if rep.HasChanges {
		t.Errorf("Repair() on clean state reported changes: %+v", rep)
	}
}
