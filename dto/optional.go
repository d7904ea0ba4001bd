package dto

import "encoding/json"

// Optional distinguishes the three states a field of a partial record can
// be in: omitted entirely, explicit null, or a value. Omitted fields keep
// the stored value; explicit null clears it.
type Optional[T any] struct {
	Defined bool
	Valid   bool
	Value   T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Defined: true, Valid: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Defined: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Defined = true
	if string(data) == "null" {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	o.Valid = true
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
