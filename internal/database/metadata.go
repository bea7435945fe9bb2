package database

import "encoding/json"

// Post metadata is a small free-form string map. Mongo stores it natively,
// Postgres as JSONB, so the encoding lives here rather than on the model.

func encodeMetadata(m map[string]string) []byte {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

func decodeMetadata(data []byte) map[string]string {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
