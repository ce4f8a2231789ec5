package tree

// Merge deep-merges src into dst and returns a new Object; neither input is
// mutated. For every key in src: if both sides hold an Object, the two are
// merged recursively; otherwise the src value replaces whatever dst held,
// including replacing an object with a scalar or vice versa. Arrays are
// never element-merged, a src array fully replaces the prior value.
func Merge(dst, src Object) Object {
	out := make(Object, len(dst)+len(src))
	for key, v := range dst {
		out[key] = Clone(v)
	}
	for key, sv := range src {
		dv, exists := out[key]
		if exists {
			dobj, dok := dv.(Object)
			sobj, sok := sv.(Object)
			if dok && sok {
				out[key] = Merge(dobj, sobj)
				continue
			}
		}
		out[key] = Clone(sv)
	}
	return out
}
