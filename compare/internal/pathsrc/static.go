package pathsrc

// Static normalizes and dedups an explicit path list, preserving the
// caller's ordering. Explicit paths are not exclusion-filtered: the
// user asked for them by name.
func Static(paths []string, keepQuery bool) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		n, err := NormalizePath(p, keepQuery)
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
