package mapx

// Unique returns a new slice containing only the first occurrence of each element.
// Insertion order is preserved. Returns an empty, non-nil slice for empty input.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	result := make([]T, 0, len(s))

	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// Filter returns a new slice with the elements of s for which keep returns true.
// A nil keep function retains every element. The result is never nil.
func Filter[T any](s []T, keep func(T) bool) []T {
	result := make([]T, 0, len(s))

	for _, v := range s {
		if keep == nil || keep(v) {
			result = append(result, v)
		}
	}

	return result
}
