package cadstore

import "context"

const ddlTransaction2 = `CREATE TABLE IF NOT EXISTS Transaction2 (
	id INTEGER PRIMARY KEY,
	parentId INTEGER,
	text VARCHAR
)`

const ddlAffectedObjects = `CREATE TABLE IF NOT EXISTS AffectedObjects (
	tid INTEGER,
	oid INTEGER,
	PRIMARY KEY (tid, oid)
)`

const ddlPropertyChanges = `CREATE TABLE IF NOT EXISTS PropertyChanges (
	tid INTEGER,
	oid INTEGER,
	pid INTEGER,
	dataType INTEGER,
	oldValue BLOB,
	newValue BLOB,
	PRIMARY KEY (tid, oid, pid)
)`

const ddlVariables = `CREATE TABLE IF NOT EXISTS Variables (
	key TEXT PRIMARY KEY,
	value BLOB
)`

const lastTransactionKey = "LastTransaction"

// bootstrap creates the façade-owned tables (Transaction2,
// AffectedObjects, PropertyChanges, Variables), seeds the
// LastTransaction variable, and fans out per-type DDL via the registry,
// in that order.
func bootstrap(ctx context.Context, exec Executor, registry *Registry) error {
	for _, ddl := range []string{ddlTransaction2, ddlAffectedObjects, ddlPropertyChanges, ddlVariables} {
		if _, err := exec.Exec(ctx, ddl); err != nil {
			return ErrSchema
		}
	}

	if _, err := exec.Exec(ctx,
		`INSERT INTO Variables (key, value) SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM Variables WHERE key = ?)`,
		lastTransactionKey, "-1", lastTransactionKey); err != nil {
		return ErrSchema
	}

	if err := registry.InitDB(ctx, exec); err != nil {
		return ErrSchema
	}
	return nil
}
