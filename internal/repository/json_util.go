package repository

import (
	"database/sql"
	"encoding/json"
)

// nullJSON converts an optional raw JSON blob into a query argument.
// lib/pq needs jsonb values as text, so nil stays NULL and anything
// else goes over the wire as a string (columns cast with ::jsonb).
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// scanJSON maps a nullable jsonb column back to a raw blob.
func scanJSON(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
