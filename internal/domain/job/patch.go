package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Editable field names. These are the only columns the application writes.
const (
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAppliedAt   = "applied_at"
	FieldLastUpdated = "last_updated"
	FieldNotes       = "notes"
)

var EditableFields = []string{FieldStatus, FieldPriority, FieldAppliedAt, FieldLastUpdated, FieldNotes}

func IsEditable(name string) bool {
	for _, f := range EditableFields {
		if f == name {
			return true
		}
	}
	return false
}

// Field is a tri-state patch value: absent, set to NULL, or set to a value.
type Field[T any] struct {
	present bool
	value   *T
}

func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: &v}
}

func SetPtr[T any](v *T) Field[T] {
	return Field[T]{present: true, value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{present: true}
}

func (f Field[T]) Present() bool { return f.present }

// Value is nil when the field is absent or explicitly NULL.
func (f Field[T]) Value() *T { return f.value }

type Patch struct {
	Status      Field[Status]
	Priority    Field[Priority]
	AppliedAt   Field[time.Time]
	LastUpdated Field[time.Time]
	Notes       Field[string]
}

func (p Patch) Empty() bool {
	return !p.Status.present &&
		!p.Priority.present &&
		!p.AppliedAt.present &&
		!p.LastUpdated.present &&
		!p.Notes.present
}

// Column is one SET assignment of a patch.
type Column struct {
	Name  string
	Value any
}

// Columns lists present fields in a stable order. NULL values are untyped nil.
func (p Patch) Columns() []Column {
	out := make([]Column, 0, 5)
	if p.Status.present {
		out = append(out, Column{Name: FieldStatus, Value: ptrAny(p.Status.value, func(s Status) any { return string(s) })})
	}
	if p.Priority.present {
		out = append(out, Column{Name: FieldPriority, Value: ptrAny(p.Priority.value, func(s Priority) any { return string(s) })})
	}
	if p.AppliedAt.present {
		out = append(out, Column{Name: FieldAppliedAt, Value: ptrAny(p.AppliedAt.value, func(t time.Time) any { return t.UTC() })})
	}
	if p.LastUpdated.present {
		out = append(out, Column{Name: FieldLastUpdated, Value: ptrAny(p.LastUpdated.value, func(t time.Time) any { return t.UTC() })})
	}
	if p.Notes.present {
		out = append(out, Column{Name: FieldNotes, Value: ptrAny(p.Notes.value, func(s string) any { return s })})
	}
	return out
}

// Apply copies present fields onto l. Used for local splicing in tests and fakes.
func (p Patch) Apply(l Listing) Listing {
	if p.Status.present {
		l.Status = p.Status.value
	}
	if p.Priority.present {
		l.Priority = p.Priority.value
	}
	if p.AppliedAt.present {
		l.AppliedAt = p.AppliedAt.value
	}
	if p.LastUpdated.present {
		l.LastUpdated = p.LastUpdated.value
	}
	if p.Notes.present {
		l.Notes = p.Notes.value
	}
	return l
}

func ptrAny[T any](v *T, conv func(T) any) any {
	if v == nil {
		return nil
	}
	return conv(*v)
}

// ParsePatch decodes a JSON object into a Patch. Keys outside the editable
// whitelist are ignored; a JSON null clears the column.
func ParsePatch(raw map[string]json.RawMessage) (Patch, error) {
	var p Patch
	for key, msg := range raw {
		if !IsEditable(key) {
			continue
		}
		isNull := len(bytes.TrimSpace(msg)) == 0 || bytes.Equal(bytes.TrimSpace(msg), []byte("null"))

		switch key {
		case FieldStatus:
			if isNull {
				p.Status = Null[Status]()
				continue
			}
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.Status = Set(Status(s))
		case FieldPriority:
			if isNull {
				p.Priority = Null[Priority]()
				continue
			}
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.Priority = Set(Priority(s))
		case FieldAppliedAt, FieldLastUpdated:
			f := Null[time.Time]()
			if !isNull {
				var t time.Time
				if err := json.Unmarshal(msg, &t); err != nil {
					return Patch{}, fmt.Errorf("%s: %w", key, err)
				}
				f = Set(t)
			}
			if key == FieldAppliedAt {
				p.AppliedAt = f
			} else {
				p.LastUpdated = f
			}
		case FieldNotes:
			if isNull {
				p.Notes = Null[string]()
				continue
			}
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.Notes = Set(s)
		}
	}
	return p, nil
}
