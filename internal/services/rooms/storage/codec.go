package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
)

// EncodeSet renders a set column value as a sorted JSON array.
func EncodeSet(set domain.Set) (string, error) {
	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode set: %w", err)
	}
	return string(data), nil
}

// DecodeSet parses a set column value. Null and empty values decode to an
// empty set.
func DecodeSet(value string) (domain.Set, error) {
	if value == "" {
		return domain.NewSet(), nil
	}
	var set domain.Set
	if err := json.Unmarshal([]byte(value), &set); err != nil {
		return nil, fmt.Errorf("decode set: %w", err)
	}
	if set == nil {
		set = domain.NewSet()
	}
	return set, nil
}
