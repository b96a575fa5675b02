package odoo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Odoo serialises unset fields as false, whatever their declared type. The
// types below absorb that so records can be decoded into plain structs.

// String is a char/text field that may come back as false.
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	if isFalsy(data) {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = String(v)
	return nil
}

// Many2One is a relational field serialised as [id, "display name"] or false.
type Many2One struct {
	ID   int64
	Name string
}

// Valid reports whether the relation is set.
func (m Many2One) Valid() bool { return m.ID > 0 }

func (m *Many2One) UnmarshalJSON(data []byte) error {
	if isFalsy(data) {
		*m = Many2One{}
		return nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("many2one: %w", err)
	}
	if len(pair) == 0 {
		*m = Many2One{}
		return nil
	}
	var id int64
	if err := json.Unmarshal(pair[0], &id); err != nil {
		return fmt.Errorf("many2one id: %w", err)
	}
	var name string
	if len(pair) > 1 {
		_ = json.Unmarshal(pair[1], &name)
	}
	*m = Many2One{ID: id, Name: name}
	return nil
}

func (m Many2One) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("false"), nil
	}
	return json.Marshal([]any{m.ID, m.Name})
}

// Truthy reports whether a method result means success, e.g. the return of
// write or action_validate. false, null, 0, "" and empty containers are not.
func Truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isFalsy(raw) {
		return false
	}
	switch string(raw) {
	case "0", `""`, "[]", "{}":
		return false
	}
	return true
}

// DecodeID decodes the id returned by create.
func DecodeID(raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		// create called with a list of values returns a list of ids
		var ids []int64
		if err2 := json.Unmarshal(raw, &ids); err2 != nil || len(ids) == 0 {
			return 0, fmt.Errorf("decode id from %s: %w", string(raw), err)
		}
		id = ids[0]
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %d", id)
	}
	return id, nil
}

func isFalsy(data []byte) bool {
	s := string(bytes.TrimSpace(data))
	return s == "false" || s == "null"
}
