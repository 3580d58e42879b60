// Package deepcopy offloads structural deep copies of conversation payloads.
package deepcopy

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
)

// errUncloneable marks a value the structural clone does not support.
// The caller falls back to a serialize/deserialize round trip.
var errUncloneable = errors.New("deepcopy: value not structurally cloneable")

// cloneMessages returns a structurally independent copy of msgs.
// Structural clone first; JSON round trip as fallback.
func cloneMessages(msgs []domain.Message) ([]domain.Message, error) {
	if msgs == nil {
		return nil, nil
	}

	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		cloned, err := cloneValue(map[string]any(m))
		if err != nil {
			return cloneMessagesJSON(msgs)
		}
		if cloned == nil {
			out[i] = nil
			continue
		}
		out[i] = domain.Message(cloned.(map[string]any))
	}
	return out, nil
}

// cloneMetadata returns a structurally independent copy of meta.
func cloneMetadata(meta domain.Metadata) (domain.Metadata, error) {
	if meta == nil {
		return nil, nil
	}

	cloned, err := cloneValue(map[string]any(meta))
	if err != nil {
		return cloneMetadataJSON(meta)
	}
	return domain.Metadata(cloned.(map[string]any)), nil
}

// cloneValue structurally clones JSON-shaped values. Maps and slices
// are copied recursively; scalars are copied by value. Anything else
// reports errUncloneable.
func cloneValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return val, nil
	case time.Time:
		return val, nil
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			cloned, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = cloned
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cloned, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = cloned
		}
		return out, nil
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			cloned, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			if cloned != nil {
				out[i] = cloned.(map[string]any)
			}
		}
		return out, nil
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out, nil
	default:
		return nil, errUncloneable
	}
}

// cloneMessagesJSON is the serialize/deserialize fallback for messages.
func cloneMessagesJSON(msgs []domain.Message) ([]domain.Message, error) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, domain.ErrCopyFailed.WithCause(err)
	}
	var out []domain.Message
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, domain.ErrCopyFailed.WithCause(err)
	}
	return out, nil
}

// cloneMetadataJSON is the serialize/deserialize fallback for metadata.
func cloneMetadataJSON(meta domain.Metadata) (domain.Metadata, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, domain.ErrCopyFailed.WithCause(err)
	}
	var out domain.Metadata
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, domain.ErrCopyFailed.WithCause(err)
	}
	return out, nil
}
