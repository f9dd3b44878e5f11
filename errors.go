package xbind

import "errors"

// ErrMalformedIdentifier is returned when a bind key holds anything other
// than letters, digits, underscores and an optional leading "@".
var ErrMalformedIdentifier = errors.New("xbind: malformed bind identifier")

// ErrMissingIdentifier is returned when a bind key is empty or nil.
var ErrMissingIdentifier = errors.New("xbind: missing bind identifier")

// ErrShapeMismatch is returned when binding values cannot be read as a
// mapping or a key/value sequence for a statement that needs one.
var ErrShapeMismatch = errors.New("xbind: expected a mapping or sequence for automatic binding")

// ErrBindPosition is returned by BindParam for a position outside 1..NumInput.
var ErrBindPosition = errors.New("xbind: bind position out of range")

// ErrNoResultSet is returned when rows are fetched from a statement that has
// no open result set (never queried, or already finished).
var ErrNoResultSet = errors.New("xbind: fetch without an open result set")

// ErrNilParams is returned when a nil pointer is passed as the single
// binding argument.
var ErrNilParams = errors.New("xbind: bind: nil params")

// ErrDuplicateKeyTag is returned when two struct fields (including embedded)
// resolve to the same parameter name via db tags or field names.
var ErrDuplicateKeyTag = errors.New("xbind: bind: duplicate key from struct tags/fields")

// Skip is returned by a Stage to drop the current row. No later stage sees it.
var Skip = errors.New("xbind: skip row")
