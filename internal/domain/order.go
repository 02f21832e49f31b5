package domain

import "sort"

// Ordering uses fractional insertion: a moved item takes the target's
// order ±0.5, touching no sibling, then the whole scope is renormalized
// back to dense integers. At most one fractional value ever exists at a
// time, so float precision never degrades across repeated drags.

// FractionalOrder computes the transient order for an item dropped
// adjacent to target. above places it before the target.
func FractionalOrder(target float64, above bool) float64 {
	if above {
		return target - 0.5
	}
	return target + 0.5
}

// RenormalizeURLs reassigns dense integer orders (1, 2, 3, ...) to the
// URLs of one group, sorted by their current order. Stable, so ties keep
// their relative position. Mandatory after every fractional insertion and
// every bulk mutation.
func RenormalizeURLs(urls []*URL, groupID string) {
	scope := make([]*URL, 0, len(urls))
	for _, u := range urls {
		if u.GroupID == groupID {
			scope = append(scope, u)
		}
	}
	sort.SliceStable(scope, func(i, j int) bool { return scope[i].Order < scope[j].Order })
	for i, u := range scope {
		u.Order = float64(i + 1)
	}
}

// RenormalizeAllURLs renormalizes every group's URL scope.
func RenormalizeAllURLs(groups []*Group, urls []*URL) {
	for _, g := range groups {
		RenormalizeURLs(urls, g.ID)
	}
}

// RenormalizeGroups pins the default group at order 0 and reassigns dense
// integer orders (1, 2, 3, ...) to the rest, sorted by current order.
func RenormalizeGroups(groups []*Group) {
	others := make([]*Group, 0, len(groups))
	for _, g := range groups {
		if g.ID == DefaultGroupID {
			g.Order = 0
			continue
		}
		others = append(others, g)
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].Order < others[j].Order })
	for i, g := range others {
		g.Order = float64(i + 1)
	}
}

// AppendOrderURL returns the order that places a new or reassigned URL at
// the end of a group: max(existing orders, 0) + 1.
func AppendOrderURL(urls []*URL, groupID string) float64 {
	max := 0.0
	for _, u := range urls {
		if u.GroupID == groupID && u.Order > max {
			max = u.Order
		}
	}
	return max + 1
}

// AppendOrderGroup returns the order placing a new group last among the
// non-default groups.
func AppendOrderGroup(groups []*Group) float64 {
	max := 0.0
	for _, g := range groups {
		if g.ID != DefaultGroupID && g.Order > max {
			max = g.Order
		}
	}
	return max + 1
}

// SortedURLs returns the URLs of a group in display order. Stable copy;
// the input slice is untouched.
func SortedURLs(urls []*URL, groupID string) []*URL {
	scope := make([]*URL, 0, len(urls))
	for _, u := range urls {
		if u.GroupID == groupID {
			scope = append(scope, u)
		}
	}
	sort.SliceStable(scope, func(i, j int) bool { return scope[i].Order < scope[j].Order })
	return scope
}

// SortedGroups returns groups in display order: the default group first,
// then the rest by order.
func SortedGroups(groups []*Group) []*Group {
	sorted := append([]*Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID == DefaultGroupID {
			return sorted[j].ID != DefaultGroupID
		}
		if sorted[j].ID == DefaultGroupID {
			return false
		}
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// SwapOrders exchanges two order values directly. The keyboard move path:
// no fractional value is introduced, so no renormalization is needed and
// the end state matches the equivalent drag.
func SwapOrders(a, b *float64) {
	*a, *b = *b, *a
}
