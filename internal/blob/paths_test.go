package blob

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"weird/..\\name.jpg", "weird_.._name.jpg"},
		{"Ünï¢ödé.gif", "__n______d__.gif"},
		{"safe-name.2024.jpeg", "safe-name.2024.jpeg"},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestObjectName(t *testing.T) {
	name := ObjectName("thumbnail", "my photo.png")
	if !strings.HasPrefix(name, "thumbnail-") {
		t.Errorf("name = %q, want thumbnail- prefix", name)
	}
	if !strings.HasSuffix(name, "-my_photo.png") {
		t.Errorf("name = %q, want sanitized suffix", name)
	}
}

func TestPathNamespaces(t *testing.T) {
	if got := ProfileImagePath("a.png"); got != "profile-images/a.png" {
		t.Errorf("ProfileImagePath = %q", got)
	}
	if got := ProjectImagePath("project-1", "a.png"); got != "projects/project-1/a.png" {
		t.Errorf("ProjectImagePath = %q", got)
	}
	if got := SubsectionImagePath("project-1", "subsection-2", "a.png"); got != "projects/project-1/subsections/subsection-2/a.png" {
		t.Errorf("SubsectionImagePath = %q", got)
	}
	if got := NavigationImagePath("project-1", "subsection-2", "a.png"); got != "projects/project-1/subsections/subsection-2/navigation/a.png" {
		t.Errorf("NavigationImagePath = %q", got)
	}
	if got := DesignImagePath("dsg_1", "a.png"); got != "designs/dsg_1/a.png" {
		t.Errorf("DesignImagePath = %q", got)
	}
}
