package content

import "strings"

// Slugify converts a project title into a URL-safe path segment: lowercase,
// characters outside [a-z0-9 space hyphen] removed, whitespace runs
// collapsed to single hyphens, leading and trailing hyphens trimmed.
// Idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(title string) string {
	lowered := strings.ToLower(title)

	var kept strings.Builder
	kept.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			kept.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			kept.WriteRune(' ')
		}
	}

	hyphenated := strings.Join(strings.Fields(kept.String()), "-")
	return strings.Trim(hyphenated, "-")
}

// ResolveProject maps a decoded, lowercased, trimmed path segment to a
// project. The first project in list order matches if either its stored slug
// (folded and trimmed) or the slug generated from its title equals the
// segment; stored slugs take no priority over generated slugs of earlier
// projects. A miss is reported through ok, not an error.
func ResolveProject(projects []Project, segment string) (Project, bool) {
	if segment == "" {
		return Project{}, false
	}
	for _, p := range projects {
		if stored := strings.TrimSpace(strings.ToLower(p.Slug)); stored != "" && stored == segment {
			return p, true
		}
		if Slugify(p.Title) == segment {
			return p, true
		}
	}
	return Project{}, false
}
