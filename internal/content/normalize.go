package content

// The aggregate store rejects any write payload containing the Absent
// sentinel, at any nesting depth. Absent marks "field intentionally has no
// value" — typically an optional form field left blank — which is distinct
// from nil or from legitimate falsy values ("", 0, false), all of which the
// store accepts. Normalize strips the sentinel before persistence.

type absent struct{}

// Absent is the sentinel value dropped from payloads by Normalize.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Normalize returns a copy of v with every map entry whose value is Absent
// removed, recursively. Sequence elements are normalized in place order, and
// all other values pass through unchanged.
func Normalize(v any) any {
	switch value := v.(type) {
	case []any:
		next := make([]any, len(value))
		for i, elem := range value {
			next[i] = Normalize(elem)
		}
		return next
	case map[string]any:
		next := make(map[string]any, len(value))
		for key, elem := range value {
			if IsAbsent(elem) {
				continue
			}
			next[key] = Normalize(elem)
		}
		return next
	default:
		return v
	}
}

// OrAbsent returns s, or the Absent sentinel when s is empty. Used to build
// merge partials from optional form fields: a blank input contributes no
// entry to the outgoing payload.
func OrAbsent(s string) any {
	if s == "" {
		return Absent
	}
	return s
}
