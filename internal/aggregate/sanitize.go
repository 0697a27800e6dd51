package aggregate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

// Sanitize prepares a record body for the viewer. It modifies record in place
// and returns it:
//
//  1. the internal identifier field is removed;
//  2. with UseStrings, non-primitive values are replaced by their string
//     rendering unless the field is in IgnoredStringifyFields or collection
//     is in IgnoredStringifyCollections;
//  3. non-finite numbers become nil.
//
// Step 3 runs last and regardless of UseStrings, so a NaN always ends as
// null rather than as its textual form.
func Sanitize(record Record, opts Options, collection string) Record {
	delete(record, registry.IDField)

	if opts.UseStrings && !opts.IgnoredStringifyCollections.Has(collection) {
		for field, value := range record {
			if opts.IgnoredStringifyFields.Has(field) || isPrimitive(value) {
				continue
			}
			record[field] = stringify(value)
		}
	}

	for field, value := range record {
		if isNonFinite(value) {
			record[field] = nil
		}
	}

	return record
}

// isPrimitive reports whether v is a number, string, boolean or null.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func isNonFinite(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f) || math.IsInf(f, 0)
	case float32:
		return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
	default:
		return false
	}
}

// stringify renders a non-primitive value as compact JSON, falling back to
// fmt formatting for values JSON cannot represent.
func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
