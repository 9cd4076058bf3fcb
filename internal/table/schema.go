package table

import (
	"encoding/json"
	"strconv"
	"strings"
)

// KeySchema names the key attributes of a table
type KeySchema struct {
	PartitionKey string
	SortKey      string
}

// DefaultPartitionKey is used when no partition key is configured
const DefaultPartitionKey = "time"

func (s KeySchema) attributes() []string {
	if s.SortKey == "" {
		return []string{s.PartitionKey}
	}
	return []string{s.PartitionKey, s.SortKey}
}

func (s KeySchema) isKeyAttribute(name string) bool {
	return name == s.PartitionKey || (s.SortKey != "" && name == s.SortKey)
}

// KeyFromItem extracts the key attributes of item
func (s KeySchema) KeyFromItem(item Item) (Key, error) {
	if item == nil {
		return nil, validationf("Item is required")
	}
	key := make(Key, 2)
	for _, name := range s.attributes() {
		v, ok := item[name]
		if !ok {
			return nil, validationf("One or more parameter values were invalid: Missing the key %s in the item", name)
		}
		key[name] = v
	}
	if err := checkKeyValues(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ValidateKey checks that key names exactly the schema attributes
func (s KeySchema) ValidateKey(key Key) error {
	if key == nil {
		return validationf("Key is required")
	}
	if len(key) != len(s.attributes()) {
		return validationf("The provided key element does not match the schema")
	}
	for _, name := range s.attributes() {
		if _, ok := key[name]; !ok {
			return validationf("The provided key element does not match the schema")
		}
	}
	return checkKeyValues(key)
}

// Encode renders key as a canonical, unambiguous storage key
func (s KeySchema) Encode(key Key) (string, error) {
	if err := s.ValidateKey(key); err != nil {
		return "", err
	}
	parts := make([]string, 0, 2)
	for _, name := range s.attributes() {
		parts = append(parts, encodeKeyValue(key[name]))
	}
	return strings.Join(parts, "|"), nil
}

func checkKeyValues(key Key) error {
	for name, v := range key {
		switch tv := v.(type) {
		case string:
			if tv == "" {
				return validationf("One or more parameter values are not valid. The AttributeValue for a key attribute cannot contain an empty string value. Key: %s", name)
			}
		case json.Number, float64, int, int64:
			if _, ok := toRat(tv); !ok {
				return validationf("The provided key element does not match the schema: key %s is not a valid number", name)
			}
		default:
			return validationf("The provided key element does not match the schema: key %s must be a string or a number", name)
		}
	}
	return nil
}

// encodeKeyValue renders numbers in canonical decimal form, so 1, 1.0 and
// 1e0 address the same item.
func encodeKeyValue(v any) string {
	if tv, ok := v.(string); ok {
		return "S" + strconv.Quote(tv)
	}
	if r, ok := toRat(v); ok {
		return "N" + strconv.Quote(formatRat(r).String())
	}
	return ""
}
