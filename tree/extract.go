package tree

// Extract walks root along path and returns the terminal value as a string.
// At each segment the current node must be an Object containing that key;
// anything else (including Array nodes, which have no named properties)
// ends the walk with ok=false. Terminal handling: strings pass through
// unchanged, booleans and numbers are stringified, and composite values are
// serialized to their canonical JSON text. Chain variables are always
// substituted into text templates, so the output is always a string.
func Extract(root Value, path []string) (string, bool) {
	cur := root
	for _, segment := range path {
		obj, ok := cur.(Object)
		if !ok {
			return "", false
		}
		next, ok := obj[segment]
		if !ok {
			return "", false
		}
		cur = next
	}
	return Stringify(cur)
}

// Stringify renders a single Value as template-substitutable text.
func Stringify(v Value) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case String:
		return string(t), true
	case Number:
		return string(t), true
	case Bool:
		if t {
			return "true", true
		}
		return "false", true
	case Null:
		return "null", true
	case Array, Object:
		data, err := Encode(t)
		if err != nil {
			return "", false
		}
		return string(data), true
	default:
		return "", false
	}
}
