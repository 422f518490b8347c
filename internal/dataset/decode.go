package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"etfseasonal/internal/stats"
)

// SchemaVersion is the only versioned envelope this package reads.
const SchemaVersion = 1

// envelope is the versioned form of a serialized collection. Label and
// Tables are the named forms of positions 0 and 1 of the legacy pair.
type envelope struct {
	SchemaVersion *int            `json:"schema_version"`
	Label         string          `json:"label,omitempty"`
	Tables        json.RawMessage `json:"tables,omitempty"`
	Variants      []variant       `json:"variants,omitempty"`
}

type variant struct {
	Label  string          `json:"label"`
	Tables json.RawMessage `json:"tables"`
}

// decodeCollection extracts the collection selected by variant from a
// serialized file.
//
// Legacy files are JSON arrays mirroring the pipeline's tuples. Without a
// variant the collection is element [1]; with a variant it is element
// [variant][1]. Versioned files name the same positions explicitly.
func decodeCollection(data []byte, variant *int) (stats.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", stats.ErrSchema)
	}

	switch trimmed[0] {
	case '[':
		return decodePositional(trimmed, variant)
	case '{':
		return decodeVersioned(trimmed, variant)
	default:
		return nil, fmt.Errorf("%w: document is neither an array nor an object", stats.ErrSchema)
	}
}

func decodePositional(data []byte, variant *int) (stats.Collection, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrSchema, err)
	}

	pair := outer
	if variant != nil {
		idx := *variant
		if idx < 0 || idx >= len(outer) {
			return nil, fmt.Errorf("%w: variant %d out of range, document holds %d", stats.ErrSchema, idx, len(outer))
		}
		if err := json.Unmarshal(outer[idx], &pair); err != nil {
			return nil, fmt.Errorf("%w: variant %d is not a pair: %v", stats.ErrSchema, idx, err)
		}
	}

	if len(pair) < 2 {
		return nil, fmt.Errorf("%w: expected a pair, got %d elements", stats.ErrSchema, len(pair))
	}
	return decodeTables(pair[1])
}

func decodeVersioned(data []byte, variant *int) (stats.Collection, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrSchema, err)
	}
	if env.SchemaVersion == nil {
		return nil, fmt.Errorf("%w: object without schema_version", stats.ErrSchema)
	}
	if *env.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema_version %d", stats.ErrSchema, *env.SchemaVersion)
	}

	if variant == nil {
		if env.Tables == nil {
			return nil, fmt.Errorf("%w: no tables and no variant requested", stats.ErrSchema)
		}
		return decodeTables(env.Tables)
	}

	idx := *variant
	if idx < 0 || idx >= len(env.Variants) {
		return nil, fmt.Errorf("%w: variant %d out of range, document holds %d", stats.ErrSchema, idx, len(env.Variants))
	}
	return decodeTables(env.Variants[idx].Tables)
}

// decodeEconomic reads the FRED collection: a plain object of series name to
// table, or a versioned envelope with tables.
func decodeEconomic(data []byte) (stats.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	var probe struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrSchema, err)
	}
	if probe.SchemaVersion != nil {
		return decodeVersioned(trimmed, nil)
	}
	return decodeTables(trimmed)
}

func decodeTables(raw json.RawMessage) (stats.Collection, error) {
	var c stats.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		if errors.Is(err, stats.ErrSchema) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", stats.ErrSchema, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: collection is null", stats.ErrSchema)
	}
	for k, t := range c {
		if t == nil {
			delete(c, k)
		}
	}
	return c, nil
}
