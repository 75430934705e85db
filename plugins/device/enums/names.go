package enums

import (
	"encoding/json"
	"fmt"
)

// Returns name from the table or a placeholder for out of range values.
func enumName(names []string, i int, typeName string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", typeName, i)
	}

	return names[i]
}

// Returns index of the name in the table.
func enumValue(names []string, s string, typeName string) (int, error) {
	for i, v := range names {
		if v == s {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%s does not belong to %s values", s, typeName)
}

// Marshals name as a json string.
func marshalName(name string) ([]byte, error) {
	return json.Marshal(name)
}

// Un-marshals json string into the table index.
func unmarshalName(data []byte, names []string, typeName string) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("%s should be a string, got %s", typeName, data)
	}

	return enumValue(names, s, typeName)
}
