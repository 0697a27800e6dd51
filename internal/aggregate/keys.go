package aggregate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

// ExtractKey derives the natural key of a record and returns it together with
// the record body stripped of its key fields. The input record is not
// modified.
//
// Each key field is rendered with RenderKeyComponent, except the alliance
// colour discriminator which is projected to "red" or "blue".
func ExtractKey(reg *registry.Registry, docType registry.DocumentType, record Record) ([]string, Record, error) {
	fields := reg.KeyFieldsOf(docType)
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("no key fields registered for document type %q", docType)
	}

	body := record.Clone()
	key := make([]string, 0, len(fields))
	for _, field := range fields {
		value, ok := body[field]
		if !ok {
			return nil, nil, &MissingKeyFieldError{
				Type:     docType,
				Field:    field,
				RecordID: recordID(record),
			}
		}

		if field == registry.AllianceColorField {
			key = append(key, allianceColor(value))
		} else {
			key = append(key, RenderKeyComponent(value))
		}
		delete(body, field)
	}

	return key, body, nil
}

// RenderKeyComponent renders a scalar as a key path component. Numbers use
// their shortest decimal form without locale formatting, so 254 and 254.0
// both render as "254".
func RenderKeyComponent(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(v), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(v), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return stringify(v)
	}
}

// allianceColor projects the alliance discriminator into {"red","blue"}.
// Non-boolean values follow truthiness: non-zero numbers and non-empty
// strings are red.
func allianceColor(value any) string {
	if truthy(value) {
		return registry.AllianceRed
	}
	return registry.AllianceBlue
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	case float64:
		return v != 0 && !math.IsNaN(v)
	case int, int8, int16, int32, int64:
		return toInt64(v) != 0
	case uint, uint8, uint16, uint32, uint64:
		return toUint64(v) != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// recordID renders the internal identifier for error reporting.
func recordID(record Record) string {
	id, ok := record[registry.IDField]
	if !ok || id == nil {
		return ""
	}
	return RenderKeyComponent(id)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	}
	return 0
}
