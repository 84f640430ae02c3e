package utils

import (
	"encoding/json"
)

// Field is a tagged optional update for partial edits: a field the caller
// omitted is kept, an explicit null clears it, a value replaces it.
//
//	{"capacity": null}  -> Set=true,  Value=nil  (clear)
//	{"capacity": 30}    -> Set=true,  Value=&30  (replace)
//	{}                  -> Set=false             (keep)
type Field[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called for keys present in the payload, which is
// exactly the "was this field mentioned" signal we need.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	f.Value = &value
	return nil
}

// SetTo builds a Field carrying the given value, for callers constructing
// an update in code rather than decoding one from JSON.
func SetTo[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: &value}
}

// Apply writes the tagged value over dst when the field was mentioned.
func (f Field[T]) Apply(dst **T) {
	if !f.Set {
		return
	}
	*dst = f.Value
}
