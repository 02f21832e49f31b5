package domain

import "errors"

var (
	// ErrInvalidAddress indicates a URL that is not absolute http/https.
	ErrInvalidAddress = errors.New("invalid address: only absolute http/https URLs are accepted")

	// ErrInvalidRecord indicates a record failing field-level validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDuplicateURL indicates the address is already saved.
	ErrDuplicateURL = errors.New("already saved")

	// ErrURLNotFound indicates an unknown bookmark id.
	ErrURLNotFound = errors.New("bookmark not found")

	// ErrGroupNotFound indicates an unknown group id.
	ErrGroupNotFound = errors.New("group not found")

	// ErrProtectedGroup indicates an attempt to delete, rename or reorder
	// the mandatory group.
	ErrProtectedGroup = errors.New("the default group cannot be modified")

	// ErrURLLimit indicates the live URL ceiling was hit on interactive
	// creation. Import handles overflow by truncation instead.
	ErrURLLimit = errors.New("bookmark limit reached (400)")

	// ErrGroupLimit indicates the live group ceiling was hit.
	ErrGroupLimit = errors.New("group limit reached (32)")

	// ErrCrossGroupReorder indicates a reorder between two different
	// groups. Such a drag is a group reassignment, not a reorder.
	ErrCrossGroupReorder = errors.New("cannot reorder across groups")

	// ErrInvalidImport indicates a structurally invalid import file. The
	// whole import is rejected, never partially applied.
	ErrInvalidImport = errors.New("invalid import file")

	// ErrDecode indicates a stored blob that does not decode into a
	// canonical record.
	ErrDecode = errors.New("cannot decode stored record")
)
