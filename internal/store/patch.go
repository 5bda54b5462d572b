package store

import (
	"fmt"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
)

// SplitPatch validates an update payload and splits it into the identity
// criteria and the fields to set. Every key must be present and non-null;
// at least one non-key field must remain, otherwise there is nothing to
// update. Shared by both store implementations.
func SplitPatch(desc *schema.Descriptor, patch Record, keys []string) (*query.Criteria, Record, error) {
	identity := query.New(desc)
	for _, k := range keys {
		v, ok := patch[k]
		if !ok || v == nil {
			return nil, nil, fmt.Errorf("%w: missing identity field %s", ErrBadRequest, k)
		}
		identity.Exact[k] = v
	}
	changes := make(Record, len(patch))
	for name, v := range patch {
		if v == nil || isKey(keys, name) {
			continue
		}
		if _, ok := desc.Field(name); !ok {
			return nil, nil, fmt.Errorf("%w: %s has no field %s", ErrBadRequest, desc.Table, name)
		}
		changes[name] = v
	}
	if len(changes) == 0 {
		return nil, nil, fmt.Errorf("%w: nothing to update", ErrBadRequest)
	}
	return identity, changes, nil
}

func isKey(keys []string, name string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}
