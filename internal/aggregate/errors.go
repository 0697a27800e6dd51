package aggregate

import (
	"errors"
	"fmt"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

var (
	// ErrMissingKeyField is matched by every MissingKeyFieldError
	ErrMissingKeyField = errors.New("missing key field")

	// ErrSourceUnavailable is wrapped by data sources that cannot reach their backend
	ErrSourceUnavailable = errors.New("data source unavailable")
)

// MissingKeyFieldError is returned when a record lacks one of the key fields
// declared for its document type. It aborts the whole build.
type MissingKeyFieldError struct {
	Type       registry.DocumentType
	Collection string
	Field      string
	// RecordID is the record's internal identifier, empty when it had none
	RecordID string
}

func (e *MissingKeyFieldError) Error() string {
	msg := fmt.Sprintf("%s record is missing key field %q", e.Type, e.Field)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection %s)", e.Collection)
	}
	if e.RecordID != "" {
		msg += fmt.Sprintf(" (record %s)", e.RecordID)
	}
	return msg
}

// Is makes errors.Is(err, ErrMissingKeyField) succeed.
func (*MissingKeyFieldError) Is(target error) bool {
	return target == ErrMissingKeyField
}
