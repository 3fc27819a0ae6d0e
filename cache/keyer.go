package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keyer generates deterministic cache keys for analytical queries.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map
//   iteration order.
// - Concurrency: implementations must be safe for concurrent use.
// - Invalidation: keys embed the actor segment so write paths can drop
//   every view over an entity without knowing the argument hashes.
type Keyer interface {
	// Key generates a cache key from actor, analysis type, and args.
	Key(actorID, analysis string, args any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: analytics:<actorID>:<analysis>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON(args))
func (k *DefaultKeyer) Key(actorID, analysis string, args any) (string, error) {
	if actorID == "" {
		return "", fmt.Errorf("%w: empty actor id", ErrInvalidKey)
	}
	if analysis == "" {
		return "", fmt.Errorf("%w: empty analysis type", ErrInvalidKey)
	}
	if strings.ContainsRune(actorID, ':') {
		return "", fmt.Errorf("%w: actor id contains ':'", ErrInvalidKey)
	}

	// Canonicalize args to ensure deterministic serialization
	canonical, err := canonicalize(args)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize args: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("analytics:%s:%s:%s", actorID, analysis, hashStr), nil
}

// EntityMatcher returns a predicate matching every key whose actor
// segment is the given entity.
func EntityMatcher(entityID string) func(key string) bool {
	marker := ":" + entityID + ":"
	return func(key string) bool {
		return strings.Contains(key, marker)
	}
}

// canonicalize produces a deterministic JSON representation of the
// input. Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// For other types, use standard JSON encoding
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
