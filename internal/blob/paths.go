package blob

import (
	"fmt"
	"time"
)

// Storage paths are namespaced by entity kind and id so unrelated uploads
// never collide.

func ProfileImagePath(fileName string) string {
	return fmt.Sprintf("profile-images/%s", fileName)
}

func ProjectImagePath(projectID, fileName string) string {
	return fmt.Sprintf("projects/%s/%s", projectID, fileName)
}

func SubsectionImagePath(projectID, subsectionID, fileName string) string {
	return fmt.Sprintf("projects/%s/subsections/%s/%s", projectID, subsectionID, fileName)
}

func NavigationImagePath(projectID, subsectionID, fileName string) string {
	return fmt.Sprintf("projects/%s/subsections/%s/navigation/%s", projectID, subsectionID, fileName)
}

func BioContainerImagePath(containerID, fileName string) string {
	return fmt.Sprintf("bio-containers/%s/%s", containerID, fileName)
}

func DesignImagePath(designID, fileName string) string {
	return fmt.Sprintf("designs/%s/%s", designID, fileName)
}

// ObjectName builds the stored file name: kind prefix, millisecond timestamp
// and the sanitized original name.
func ObjectName(kind, originalName string) string {
	return fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixMilli(), SanitizeFileName(originalName))
}

// SanitizeFileName replaces every character outside [A-Za-z0-9.-] with an
// underscore before the name enters a storage path.
func SanitizeFileName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
