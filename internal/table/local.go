package table

import (
	"encoding/json"
	"fmt"
)

// planUpdate validates an update against the key schema and returns the
// item that should be stored. old is nil when no item exists under the key.
func planUpdate(schema KeySchema, old Item, input UpdateInput) (Item, error) {
	plan, err := ParseUpdate(input.UpdateExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	for _, name := range schema.attributes() {
		if plan.TouchesAttribute(name) {
			return nil, validationf("One or more parameter values were invalid: Cannot update attribute %s. This attribute is part of the key", name)
		}
	}

	base := old
	if base == nil {
		base = make(Item, len(input.Key))
		for k, v := range input.Key {
			base[k] = v
		}
	}

	return plan.Apply(base)
}

func marshalItem(item Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, validationf("item is not serializable: %v", err)
	}
	return data, nil
}

func unmarshalItem(data []byte) (Item, error) {
	var item Item
	if err := DecodeJSON(data, &item); err != nil {
		return nil, fmt.Errorf("stored item is corrupt: %w", err)
	}
	return item, nil
}
