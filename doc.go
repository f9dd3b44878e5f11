/*
Package xbind is a placeholder-translation and row-fetching layer over
database/sql. You write SQL with named (":name", "@name"), numeric ("?1") or
plain positional ("?") placeholders; xbind rewrites it into the positional
form your driver understands, binds values by name or number, and runs fetched
rows through an ordered chain of transformation stages.

# Placeholders

One notation is honored per statement, chosen by priority:

  - ":name"  named, identifiers without the colon
  - "@name"  named, identifiers keep the "@" ("@id" and ":id" are different names)
  - "?N"     numeric, identifiers are the digits
  - "?"      positional, passed through untouched

Tokens of a lower-priority notation in the same statement are left as text.
Quoted strings and identifiers, comments, PostgreSQL $tag$ blocks, "::" casts
and MySQL "@@" variables are never placeholders. A name that occurs several
times is bound once and fanned out to every occurrence. After translation the
markers are renumbered for the driver's dialect (see Placeholder).

# Binding

With auto-bind on (the default), values passed to Execute, Query, Iterate and
the DB helpers are resolved through the statement's ParamIndex:

  - a map, or a struct with `db` tags, binds by name
  - for named statements, a flat list or single slice is read as key/value pairs
  - for numeric statements, element i binds identifier i+1
  - pure positional statements take values in order; a map is ErrShapeMismatch

Bind keys are validated before anything reaches the driver
(ErrMissingIdentifier, ErrMalformedIdentifier, ErrShapeMismatch). With auto-bind
off, values go to the driver in order, except that one slice argument is spread
and a map is ErrShapeMismatch.

# Fetching

Rows come back as []any (array style) or map[string]any (hash style). Every
fetch takes a Chain: stages run in order, each receiving the previous output,
and a stage returning Skip drops the row. FetchRow* returns nil when there is
no row; FetchAll* and Cursor.ForEach collect the surviving rows.

# Error handling

Driver errors from prepare, execute and fetch are returned unchanged. Errors
detected here are sentinels checked with errors.Is. The most recent error of a
statement is also available from Stmt.Err, and DB.Err holds the last error of
the DB-level calls. A failed bind stops the execute.

# Concurrency

A DB is as safe for concurrent use as its Preparer. A Stmt holds bound values
and one open result set and must not be used from several goroutines at once;
its ParamIndex is read-only and may be shared.
*/
package xbind
