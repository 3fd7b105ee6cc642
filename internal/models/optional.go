// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OptionalUUID distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null or "".
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

// UnmarshalJSON is only invoked when the key is present in the document.
func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a string id or null")
	}
	if s == "" {
		return nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	o.Value = &id
	return nil
}

// Some returns a set OptionalUUID pointing at id.
func Some(id uuid.UUID) OptionalUUID {
	return OptionalUUID{Set: true, Value: &id}
}

// Null returns a set OptionalUUID with no value (an explicit detach).
func Null() OptionalUUID {
	return OptionalUUID{Set: true}
}
