package content

import (
	"errors"
	"fmt"
	"time"
)

// Mutations are copy-on-write: input slices are never modified, and every
// function returns a complete replacement value for the list it operates on.
// Find-or-create by id holds at every level: an element whose id matches is
// replaced at its original index; a missing id appends a new element with
// Order set to the previous list length. Deletion filters by id and never
// renumbers the Order values of survivors.

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrSubsectionNotFound = errors.New("subsection not found")
	ErrImageIndex         = errors.New("image index out of range")
)

// Image kinds accepted by SetProjectImage and SetSubsectionImage.
const (
	ImageThumbnail  = "thumbnail"
	ImageHeader     = "header"
	ImageNavigation = "navigation"
	ImageCollage    = "collage"
)

// UpsertProject replaces the project with a matching id in place, or appends
// it with Order set to the current list length.
func UpsertProject(projects []Project, project Project) []Project {
	next := cloneProjects(projects)
	for i := range next {
		if next[i].ID == project.ID {
			next[i] = project
			return next
		}
	}
	project.Order = len(next)
	return append(next, project)
}

// SetProjectImage writes a thumbnail or header-graphic URL onto the slot,
// materializing the slot if no project exists under that id yet.
func SetProjectImage(projects []Project, projectID, kind, url string) []Project {
	next := cloneProjects(projects)
	for i := range next {
		if next[i].ID != projectID {
			continue
		}
		if kind == ImageHeader {
			next[i].HeaderGraphicURL = url
		} else {
			next[i].ImageURL = url
		}
		return next
	}
	created := Project{
		ID:          projectID,
		Subsections: []Subsection{},
		Order:       len(next),
	}
	if kind == ImageHeader {
		created.HeaderGraphicURL = url
	} else {
		created.ImageURL = url
	}
	return append(next, created)
}

// DeleteProject removes the project by id. Survivors keep their Order values.
func DeleteProject(projects []Project, projectID string) []Project {
	next := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != projectID {
			next = append(next, p)
		}
	}
	return next
}

// UpsertSubsection applies find-or-create to the subsection list of an
// existing project. A missing project id aborts the whole operation; it
// never falls back to inserting at the project level.
func UpsertSubsection(projects []Project, projectID string, sub Subsection) ([]Project, error) {
	next := cloneProjects(projects)
	idx := projectIndex(next, projectID)
	if idx < 0 {
		return nil, fmt.Errorf("upsert subsection %s: %w", sub.ID, ErrProjectNotFound)
	}
	subs := cloneSubsections(next[idx].Subsections)
	replaced := false
	for i := range subs {
		if subs[i].ID == sub.ID {
			subs[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		sub.Order = len(subs)
		subs = append(subs, sub)
	}
	next[idx].Subsections = subs
	return next, nil
}

// SetSubsectionImage writes a header or navigation URL, or appends a collage
// URL, onto a subsection of an existing project. The subsection is created
// if its id is absent; the project must already exist.
func SetSubsectionImage(projects []Project, projectID, subID, kind, url string) ([]Project, error) {
	next := cloneProjects(projects)
	idx := projectIndex(next, projectID)
	if idx < 0 {
		return nil, fmt.Errorf("set subsection image: %w", ErrProjectNotFound)
	}
	subs := cloneSubsections(next[idx].Subsections)
	for i := range subs {
		if subs[i].ID != subID {
			continue
		}
		switch kind {
		case ImageNavigation:
			subs[i].NavigationImageURL = url
		case ImageCollage:
			images := make([]string, len(subs[i].Images), len(subs[i].Images)+1)
			copy(images, subs[i].Images)
			subs[i].Images = append(images, url)
		default:
			subs[i].HeaderImageURL = url
		}
		next[idx].Subsections = subs
		return next, nil
	}
	created := Subsection{
		ID:     subID,
		Images: []string{},
		Order:  len(subs),
	}
	switch kind {
	case ImageNavigation:
		created.NavigationImageURL = url
	case ImageCollage:
		created.Images = []string{url}
	default:
		created.HeaderImageURL = url
	}
	next[idx].Subsections = append(subs, created)
	return next, nil
}

// RemoveSubsectionImage drops the collage image at the given index.
func RemoveSubsectionImage(projects []Project, projectID, subID string, index int) ([]Project, error) {
	next := cloneProjects(projects)
	idx := projectIndex(next, projectID)
	if idx < 0 {
		return nil, fmt.Errorf("remove subsection image: %w", ErrProjectNotFound)
	}
	subs := cloneSubsections(next[idx].Subsections)
	for i := range subs {
		if subs[i].ID != subID {
			continue
		}
		if index < 0 || index >= len(subs[i].Images) {
			return nil, fmt.Errorf("remove subsection image %d of %d: %w", index, len(subs[i].Images), ErrImageIndex)
		}
		images := make([]string, 0, len(subs[i].Images)-1)
		images = append(images, subs[i].Images[:index]...)
		images = append(images, subs[i].Images[index+1:]...)
		subs[i].Images = images
		next[idx].Subsections = subs
		return next, nil
	}
	return nil, fmt.Errorf("remove subsection image: %w", ErrSubsectionNotFound)
}

// DeleteSubsection removes the subsection by id from an existing project.
func DeleteSubsection(projects []Project, projectID, subID string) ([]Project, error) {
	next := cloneProjects(projects)
	idx := projectIndex(next, projectID)
	if idx < 0 {
		return nil, fmt.Errorf("delete subsection: %w", ErrProjectNotFound)
	}
	subs := make([]Subsection, 0, len(next[idx].Subsections))
	for _, sub := range next[idx].Subsections {
		if sub.ID != subID {
			subs = append(subs, sub)
		}
	}
	next[idx].Subsections = subs
	return next, nil
}

// NewSubsection constructs an empty subsection with a timestamp-derived id
// and Order set to the current list length.
func NewSubsection(existing []Subsection) Subsection {
	return Subsection{
		ID:     fmt.Sprintf("subsection-%d", time.Now().UnixMilli()),
		Images: []string{},
		Order:  len(existing),
	}
}

// AppendProfileImage adds a carousel image URL to the end of the list.
func AppendProfileImage(images []string, url string) []string {
	next := make([]string, len(images), len(images)+1)
	copy(next, images)
	return append(next, url)
}

// RemoveProfileImage drops the carousel image at the given index.
func RemoveProfileImage(images []string, index int) ([]string, error) {
	if index < 0 || index >= len(images) {
		return nil, fmt.Errorf("remove profile image %d of %d: %w", index, len(images), ErrImageIndex)
	}
	next := make([]string, 0, len(images)-1)
	next = append(next, images[:index]...)
	next = append(next, images[index+1:]...)
	return next, nil
}

// UpsertBioContainer applies find-or-create to the bio container list.
func UpsertBioContainer(containers []BioContainer, container BioContainer) []BioContainer {
	next := make([]BioContainer, len(containers))
	copy(next, containers)
	for i := range next {
		if next[i].ID == container.ID {
			next[i] = container
			return next
		}
	}
	container.Order = len(next)
	return append(next, container)
}

// DeleteBioContainer removes the container by id.
func DeleteBioContainer(containers []BioContainer, id string) []BioContainer {
	next := make([]BioContainer, 0, len(containers))
	for _, c := range containers {
		if c.ID != id {
			next = append(next, c)
		}
	}
	return next
}

func projectIndex(projects []Project, projectID string) int {
	for i := range projects {
		if projects[i].ID == projectID {
			return i
		}
	}
	return -1
}

func cloneProjects(projects []Project) []Project {
	next := make([]Project, len(projects))
	copy(next, projects)
	return next
}

func cloneSubsections(subs []Subsection) []Subsection {
	next := make([]Subsection, len(subs))
	copy(next, subs)
	return next
}
