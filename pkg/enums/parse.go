package enums

import "fmt"

// parse returns the member of set spelled exactly as value.
func parse[T ~string](set []T, value, label string) (T, error) {
	for _, candidate := range set {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", label, value)
}
