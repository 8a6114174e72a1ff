package store

import (
	"encoding/json"
	"fmt"
)

// StepMap maps old step ids to their renumbered ids.
type StepMap map[string]string

// LoadStepMap reads the step map; a missing entry yields an empty map.
func LoadStepMap(s Store) (StepMap, error) {
	raw, err := s.Get(KeyStepMap)
	if err != nil {
		return nil, err
	}
	m := make(StepMap)
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decoding step map: %w", err)
	}
	return m, nil
}

// SaveStepMap writes m as the step map.
func SaveStepMap(s Store, m StepMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.Set(KeyStepMap, string(data))
}

// RecordStep adds old->new to the stored map. The first mapping recorded for
// an id wins; every commit is replayed once per rebase. Ids that keep their
// number are not recorded, and an empty new marks a removed step.
func RecordStep(s Store, old, new string) error {
	if old == new {
		return nil
	}
	m, err := LoadStepMap(s)
	if err != nil {
		return err
	}
	if _, ok := m[old]; ok {
		return nil
	}
	m[old] = new
	return SaveStepMap(s, m)
}

// Lookup resolves id through m. Unmapped ids kept their number; ok is false
// when the step was removed.
func (m StepMap) Lookup(id string) (string, bool) {
	v, mapped := m[id]
	if !mapped {
		return id, true
	}
	return v, v != ""
}
