package cadstore

import "errors"

// ErrNotFound is returned when a query by id finds no matching row.
var ErrNotFound = errors.New("cadstore: record not found")

// ErrUnknownObjectType is returned by Storage.SaveObject when the
// object's type id has no handler registered for it. Loads of an
// unregistered type do not return it: they yield an absent result.
var ErrUnknownObjectType = errors.New("cadstore: unknown object type")

// ErrTypeMismatch is returned by a handler's SaveObject when it is given
// an object of a concrete type it does not own (e.g. a Ucs passed to the
// Line handler). Narrowing failures in QueryEntity/QueryUcs return an
// absent result instead.
var ErrTypeMismatch = errors.New("cadstore: object is not of the requested type")

// ErrDuplicateObjectType is returned by RegisterObjectType when a type id
// is already registered. The duplicate is not stored: the first
// registration stays in effect; this is informational for logging.
var ErrDuplicateObjectType = errors.New("cadstore: object type already registered")

// ErrInvalidTransaction is returned when a Transaction value violates the
// invariant that every object id referenced in PropertyChanges must also
// appear in AffectedObjects, or that a change's old/new values disagree
// on data type.
var ErrInvalidTransaction = errors.New("cadstore: invalid transaction")

// ErrSchema is returned when bootstrap DDL fails. Schema errors are fatal:
// a storage instance that fails to initialize its schema is unusable.
var ErrSchema = errors.New("cadstore: schema initialization failed")
