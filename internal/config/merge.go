package config

// Merge deep-merges child over parent. Nested maps are merged key by key;
// any other child value, lists included, replaces the parent's value.
// Neither argument is modified.
func Merge(parent, child map[string]any) map[string]any {
	out := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		out[k] = deepCopy(v)
	}
	for k, v := range child {
		pm, parentIsMap := out[k].(map[string]any)
		cm, childIsMap := v.(map[string]any)
		if parentIsMap && childIsMap {
			out[k] = Merge(pm, cm)
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
