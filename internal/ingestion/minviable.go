package ingestion

import (
	"reflect"
	"sync"
	"time"
)

// Checker implements the minimum viable ingestion rule: a record missing
// any required field collapses to nil instead of being emitted partially
// populated. Required fields are declared with a `required:"true"` struct
// tag on the model types and resolved once per type.
//
// A Checker is intended to be owned by one scrape run but is safe for
// concurrent use; the per-type field cache populates lazily and
// idempotently.
type Checker struct {
	mu       sync.Mutex
	required map[reflect.Type][]int
}

// NewChecker returns a Checker with an empty per-type field cache.
func NewChecker() *Checker {
	return &Checker{required: make(map[reflect.Type][]int)}
}

// NoneIfEmpty returns model unchanged if every required field is
// populated, nil otherwise. Records are all-or-nothing at their own
// required-field boundary; nested records are expected to have been
// checked independently before being attached.
func NoneIfEmpty[T any](c *Checker, model *T) *T {
	if model == nil {
		return nil
	}

	v := reflect.ValueOf(model).Elem()
	for _, i := range c.requiredFields(v.Type()) {
		if isEmpty(v.Field(i)) {
			return nil
		}
	}
	return model
}

func (c *Checker) requiredFields(t reflect.Type) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fields, ok := c.required[t]; ok {
		return fields
	}

	var fields []int
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("required") == "true" {
			fields = append(fields, i)
		}
	}
	c.required[t] = fields
	return fields
}

var timeType = reflect.TypeOf(time.Time{})

// isEmpty reports whether a required field value counts as unpopulated:
// nil pointers, empty strings, nil or empty slices, zero times.
// Integers are never empty; 0 is a valid session_index.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem())
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
		return false
	default:
		return false
	}
}
