// Package content holds the portfolio tree model and the pure mutation,
// slug and normalization logic applied to it. Nothing here touches the
// network or the store; callers persist the values these functions return.
package content

import "time"

// ProfileID is the fixed id of the singleton profile aggregate.
const ProfileID = "main"

// MaxProjects caps the project slots; slot ids run project-1..project-3.
const MaxProjects = 3

// MaxBioContainers caps the bio primary containers shown on the landing page.
const MaxBioContainers = 3

type SocialLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Behance   string `json:"behance,omitempty"`
	Dribbble  string `json:"dribbble,omitempty"`
	Website   string `json:"website,omitempty"`
}

type BioContainer struct {
	ID          string `json:"id"`
	ImageURL    string `json:"imageUrl"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	LinkURL     string `json:"linkUrl,omitempty"`
	LinkType    string `json:"linkType,omitempty"`
	Order       int    `json:"order"`
}

type Subsection struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	HeaderImageURL     string   `json:"headerImageUrl,omitempty"`
	NavigationImageURL string   `json:"navigationImageUrl,omitempty"`
	Images             []string `json:"images"`
	Order              int      `json:"order"`
}

type Project struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug,omitempty"`
	Description      string       `json:"description,omitempty"`
	ImageURL         string       `json:"imageUrl"`
	HeaderGraphicURL string       `json:"headerGraphicUrl,omitempty"`
	Subsections      []Subsection `json:"subsections"`
	Order            int          `json:"order"`
}

// Profile is the whole aggregate tree as stored under the "main" document.
type Profile struct {
	Name          string         `json:"name,omitempty"`
	Title         string         `json:"title,omitempty"`
	Bio           string         `json:"bio,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Location      string         `json:"location,omitempty"`
	Location2     string         `json:"location2,omitempty"`
	SocialLinks   *SocialLinks   `json:"socialLinks,omitempty"`
	ProfileImages []string       `json:"profileImages,omitempty"`
	BioContainers []BioContainer `json:"bioContainers,omitempty"`
	Projects      []Project      `json:"projects,omitempty"`
}

// Design is an independent flat-collection item, not nested under Profile.
type Design struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Order       int       `json:"order"`
}

// ProjectSlots lists the fixed slot ids in display order.
func ProjectSlots() []string {
	return []string{"project-1", "project-2", "project-3"}
}

// IsProjectSlot reports whether id names one of the fixed project slots.
func IsProjectSlot(id string) bool {
	for _, slot := range ProjectSlots() {
		if id == slot {
			return true
		}
	}
	return false
}
