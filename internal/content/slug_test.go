package content

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  Multi   Space  ", "multi-space"},
		{"Already-Hyphenated Title", "already-hyphenated-title"},
		{"MiXeD CaSe 42", "mixed-case-42"},
		{"--- punctuation!?.only ---", "punctuationonly"},
		{"", ""},
		{"   ", ""},
		{"émigré café", "migr-caf"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	titles := []string{"Hello, World!", "  Multi   Space  ", "a-b-c", "Brand & Identity 2024"}
	for _, title := range titles {
		once := Slugify(title)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q -> %q", title, once, twice)
		}
	}
}

func TestResolveProjectStoredSlug(t *testing.T) {
	projects := []Project{
		{ID: "project-1", Title: "Motion Reel", Slug: "reel"},
		{ID: "project-2", Title: "Brand Identity"},
	}

	p, ok := ResolveProject(projects, "reel")
	if !ok || p.ID != "project-1" {
		t.Fatalf("expected project-1 via stored slug, got %+v ok=%v", p, ok)
	}

	p, ok = ResolveProject(projects, "brand-identity")
	if !ok || p.ID != "project-2" {
		t.Fatalf("expected project-2 via generated slug, got %+v ok=%v", p, ok)
	}
}

// A stored slug on a later project must not outrank an earlier project whose
// generated title slug matches the same segment: first match in list order
// wins, in both orderings.
func TestResolveProjectOrderDependence(t *testing.T) {
	generated := Project{ID: "project-1", Title: "X"}        // Slugify("X") == "x"
	stored := Project{ID: "project-2", Title: "Y", Slug: "x"}

	p, ok := ResolveProject([]Project{generated, stored}, "x")
	if !ok || p.ID != "project-1" {
		t.Fatalf("generated-first ordering: expected project-1, got %+v ok=%v", p, ok)
	}

	p, ok = ResolveProject([]Project{stored, generated}, "x")
	if !ok || p.ID != "project-2" {
		t.Fatalf("stored-first ordering: expected project-2, got %+v ok=%v", p, ok)
	}
}

func TestResolveProjectMiss(t *testing.T) {
	projects := []Project{{ID: "project-1", Title: "Motion Reel"}}

	if _, ok := ResolveProject(projects, "nope"); ok {
		t.Error("expected miss for unknown segment")
	}
	if _, ok := ResolveProject(projects, ""); ok {
		t.Error("expected miss for empty segment")
	}
	if _, ok := ResolveProject(nil, "motion-reel"); ok {
		t.Error("expected miss for empty project list")
	}
}

func TestResolveProjectFoldsStoredSlug(t *testing.T) {
	projects := []Project{{ID: "project-1", Title: "Reel", Slug: "  Motion-REEL  "}}

	p, ok := ResolveProject(projects, "motion-reel")
	if !ok || p.ID != "project-1" {
		t.Fatalf("expected stored slug to match after folding and trimming, got ok=%v", ok)
	}
}
