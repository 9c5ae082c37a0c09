// Package crm shapes Streak payloads into model entities and wraps the Streak
// client with the fallback policy phone lookups rely on.
package crm

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Schema tags which Streak API generation a raw payload came from.
type Schema int

const (
	// SchemaUnknown is the zero value; mapping treats it like SchemaLegacy.
	SchemaUnknown Schema = iota
	// SchemaLegacy marks /api/v1 payloads.
	SchemaLegacy
	// SchemaCurrent marks /api/v2 payloads.
	SchemaCurrent
)

func (s Schema) String() string {
	switch s {
	case SchemaLegacy:
		return "legacy"
	case SchemaCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// RawRow is an untyped CRM payload tagged with its schema. Nothing outside
// this package reads Body directly.
type RawRow struct {
	Schema Schema
	Body   json.RawMessage
}

// Row tags body with schema.
func Row(schema Schema, body json.RawMessage) RawRow {
	return RawRow{Schema: schema, Body: body}
}

// Rows tags every body with schema.
func Rows(schema Schema, bodies []json.RawMessage) []RawRow {
	if len(bodies) == 0 {
		return nil
	}
	out := make([]RawRow, len(bodies))
	for i, b := range bodies {
		out[i] = Row(schema, b)
	}
	return out
}

// currentMarkers are fields only v2 payloads carry.
var currentMarkers = []string{"givenName", "familyName", "emailAddresses", "phoneNumbers", "boxKey", "contactKey"}

// DetectSchema guesses the generation of a search row from its shape. The
// search endpoint mixes both generations in one response.
func DetectSchema(body json.RawMessage) Schema {
	if !gjson.ValidBytes(body) {
		return SchemaUnknown
	}
	res := gjson.GetManyBytes(body, currentMarkers...)
	for _, r := range res {
		if r.Exists() {
			return SchemaCurrent
		}
	}
	return SchemaLegacy
}

// DetectRows tags each body with its detected schema.
func DetectRows(bodies []json.RawMessage) []RawRow {
	if len(bodies) == 0 {
		return nil
	}
	out := make([]RawRow, len(bodies))
	for i, b := range bodies {
		out[i] = Row(DetectSchema(b), b)
	}
	return out
}
