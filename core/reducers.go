package core

// Reducers combine a list-valued state field with an update produced by a
// workflow step. They are the merge primitives graph states use when
// concurrent branches write to the same field.

// Append returns current with all update elements appended. A nil update
// leaves current untouched.
func Append[T any](current, update []T) []T {
	if len(update) == 0 {
		return current
	}
	out := make([]T, 0, len(current)+len(update))
	out = append(out, current...)
	out = append(out, update...)
	return out
}

// AppendUnique appends update elements that are not already present.
func AppendUnique[T comparable](current, update []T) []T {
	if len(update) == 0 {
		return current
	}
	seen := make(map[T]struct{}, len(current))
	for _, v := range current {
		seen[v] = struct{}{}
	}
	out := append([]T(nil), current...)
	for _, v := range update {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MergeByKey merges update into current using key for identity: an update
// element replaces the existing element with the same key, otherwise it is
// appended. Order of current is preserved; new elements keep update order.
func MergeByKey[T any](current, update []T, key func(T) string) []T {
	if len(update) == 0 {
		return current
	}
	out := append([]T(nil), current...)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[key(v)] = i
	}
	for _, v := range update {
		if i, ok := index[key(v)]; ok {
			out[i] = v
			continue
		}
		index[key(v)] = len(out)
		out = append(out, v)
	}
	return out
}

// Limit truncates a list to at most n elements. Zero or negative n returns
// the list unchanged.
func Limit[T any](list []T, n int) []T {
	if n <= 0 || len(list) <= n {
		return list
	}
	return list[:n]
}
