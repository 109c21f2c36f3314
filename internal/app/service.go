package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"folio/api/internal/blob"
	"folio/api/internal/config"
	"folio/api/internal/content"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

type UpdateProfileInput struct {
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Bio         string               `json:"bio"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone"`
	Location    string               `json:"location"`
	Location2   string               `json:"location2"`
	SocialLinks *content.SocialLinks `json:"socialLinks"`
}

type UpsertProjectInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type UpsertSubsectionInput struct {
	Title string `json:"title"`
}

type UpsertBioContainerInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LinkURL     string `json:"linkUrl"`
	LinkType    string `json:"linkType"`
	ImageURL    string `json:"imageUrl"`
}

type CreateDesignInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type UpdateDesignInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	SortOrder   *int    `json:"order"`
}

// Upload carries one incoming file. Validation happens before any network
// call so a bad file never creates partial state.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

var allowedProjectImageKinds = map[string]struct{}{
	content.ImageThumbnail: {},
	content.ImageHeader:    {},
}

var allowedSubsectionImageKinds = map[string]struct{}{
	content.ImageHeader:     {},
	content.ImageNavigation: {},
	content.ImageCollage:    {},
}

var allowedLinkTypes = map[string]struct{}{
	"":         {},
	"internal": {},
	"external": {},
}

type dataStore interface {
	GetAggregate(context.Context, string) (json.RawMessage, error)
	MergeAggregate(context.Context, string, map[string]any) error
	ListDesigns(context.Context) ([]store.Design, error)
	GetDesign(context.Context, string) (store.Design, error)
	CreateDesign(context.Context, store.Design) (string, error)
	UpdateDesign(context.Context, string, store.DesignPatch) error
	DeleteDesign(context.Context, string) error
	Ping(ctx context.Context) error
}

type blobStore interface {
	Upload(ctx context.Context, reader io.Reader, size int64, path, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	Ping(ctx context.Context) error
}

type profileCache interface {
	Get(ctx context.Context) ([]byte, bool)
	Set(ctx context.Context, data []byte)
	Invalidate(ctx context.Context)
	Ping(ctx context.Context) error
}

type designIndex interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
	IndexDesign(d store.Design)
	DeleteDesign(id string)
	ReindexAll(ctx context.Context)
}

type Service struct {
	cfg    config.Config
	store  dataStore
	blob   blobStore
	cache  profileCache
	search designIndex
}

func New(cfg config.Config, dataStore *store.PostgresStore, blobStore *blob.Store, designSearch *search.Service) *Service {
	svc := &Service{
		cfg:   cfg,
		store: dataStore,
		blob:  blobStore,
	}
	if designSearch != nil {
		svc.search = designSearch
	}
	return svc
}

// WithCache attaches the optional profile read-through cache.
func (s *Service) WithCache(cache profileCache) *Service {
	s.cache = cache
	return s
}

// AdminToken returns the static token write routes are guarded with.
func (s *Service) AdminToken() string {
	return s.cfg.AdminToken
}

// Bootstrap brings the search index in line with the designs table.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.search != nil {
		s.search.ReindexAll(ctx)
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) PingBlob(ctx context.Context) error {
	return s.blob.Ping(ctx)
}

// PingCache returns nil when no cache is configured; the cache is optional.
func (s *Service) PingCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// LoadProfile returns the profile aggregate, or nil when no document has
// been written yet. Cache hits skip the store entirely.
func (s *Service) LoadProfile(ctx context.Context) (*content.Profile, error) {
	var raw json.RawMessage
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx); ok {
			raw = data
		}
	}
	if raw == nil {
		data, err := s.store.GetAggregate(ctx, content.ProfileID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, errPersistence("load profile", err)
		}
		raw = data
		if s.cache != nil {
			s.cache.Set(ctx, raw)
		}
	}
	var profile content.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, errPersistence("decode profile", err)
	}
	return &profile, nil
}

// saveProfile merges the partial into the aggregate and drops the cache so
// the next read sees the merged document.
func (s *Service) saveProfile(ctx context.Context, partial map[string]any) error {
	cleaned, _ := content.Normalize(partial).(map[string]any)
	if err := s.store.MergeAggregate(ctx, content.ProfileID, cleaned); err != nil {
		if errors.Is(err, store.ErrUnsupportedValue) {
			return errValidation("payload contains an unsupported value")
		}
		return errPersistence("save profile", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

func (s *Service) saveAndReload(ctx context.Context, partial map[string]any) (*content.Profile, error) {
	if err := s.saveProfile(ctx, partial); err != nil {
		return nil, err
	}
	return s.LoadProfile(ctx)
}

// currentProfile loads the aggregate for a mutation, treating an absent
// document as an empty tree.
func (s *Service) currentProfile(ctx context.Context) (content.Profile, error) {
	profile, err := s.LoadProfile(ctx)
	if err != nil {
		return content.Profile{}, err
	}
	if profile == nil {
		return content.Profile{}, nil
	}
	return *profile, nil
}

// UpdateProfileFields merges the scalar profile fields. Blank strings are
// dropped from the payload so they never clobber stored values; socialLinks
// is replaced wholesale when present.
func (s *Service) UpdateProfileFields(ctx context.Context, input UpdateProfileInput) (*content.Profile, error) {
	partial := map[string]any{
		"name":      content.OrAbsent(input.Name),
		"title":     content.OrAbsent(input.Title),
		"bio":       content.OrAbsent(input.Bio),
		"email":     content.OrAbsent(input.Email),
		"phone":     content.OrAbsent(input.Phone),
		"location":  content.OrAbsent(input.Location),
		"location2": content.OrAbsent(input.Location2),
	}
	if input.SocialLinks != nil {
		partial["socialLinks"] = map[string]any{
			"linkedin":  content.OrAbsent(input.SocialLinks.LinkedIn),
			"instagram": content.OrAbsent(input.SocialLinks.Instagram),
			"twitter":   content.OrAbsent(input.SocialLinks.Twitter),
			"behance":   content.OrAbsent(input.SocialLinks.Behance),
			"dribbble":  content.OrAbsent(input.SocialLinks.Dribbble),
			"website":   content.OrAbsent(input.SocialLinks.Website),
		}
	}
	return s.saveAndReload(ctx, partial)
}

func (s *Service) validateUpload(up Upload) error {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return errValidation("please select an image file")
	}
	if up.Size > s.cfg.MaxUploadBytes {
		return errValidation(fmt.Sprintf("image size must be less than %dMB", s.cfg.MaxUploadBytes/(1024*1024)))
	}
	return nil
}

func (s *Service) uploadImage(ctx context.Context, up Upload, kind string, pathFor func(fileName string) string) (string, error) {
	if err := s.validateUpload(up); err != nil {
		return "", err
	}
	path := pathFor(blob.ObjectName(kind, up.FileName))
	url, err := s.blob.Upload(ctx, up.Reader, up.Size, path, up.ContentType)
	if err != nil {
		return "", errBlob("upload "+kind+" image", err)
	}
	return url, nil
}

// UploadProfileImage appends a carousel image.
func (s *Service) UploadProfileImage(ctx context.Context, up Upload) (*content.Profile, error) {
	url, err := s.uploadImage(ctx, up, "profile", blob.ProfileImagePath)
	if err != nil {
		return nil, err
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	images := content.AppendProfileImage(profile.ProfileImages, url)
	return s.saveAndReload(ctx, map[string]any{"profileImages": images})
}

// DeleteProfileImage removes the carousel image at index. The blob itself
// is kept; only the reference goes away.
func (s *Service) DeleteProfileImage(ctx context.Context, index int) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	images, err := content.RemoveProfileImage(profile.ProfileImages, index)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"profileImages": images})
}

// UpsertProject fills one of the fixed project slots. Form fields land on
// top of whatever the slot already holds, so images and subsections survive
// a title edit.
func (s *Service) UpsertProject(ctx context.Context, projectID string, input UpsertProjectInput) (*content.Profile, error) {
	if !content.IsProjectSlot(projectID) {
		return nil, errValidation("unknown project slot")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errValidation("title is required")
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	project := content.Project{ID: projectID, Subsections: []content.Subsection{}}
	for _, p := range profile.Projects {
		if p.ID == projectID {
			project = p
			break
		}
	}
	project.Title = input.Title
	project.Description = input.Description
	if strings.TrimSpace(input.Slug) != "" {
		project.Slug = content.Slugify(input.Slug)
	} else {
		project.Slug = content.Slugify(input.Title)
	}
	projects := content.UpsertProject(profile.Projects, project)
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	projects := content.DeleteProject(profile.Projects, projectID)
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// AttachProjectImage uploads a thumbnail or header graphic and writes the
// resulting URL onto the slot.
func (s *Service) AttachProjectImage(ctx context.Context, projectID, kind string, up Upload) (*content.Profile, error) {
	if !content.IsProjectSlot(projectID) {
		return nil, errValidation("unknown project slot")
	}
	if _, ok := allowedProjectImageKinds[kind]; !ok {
		return nil, errValidation("image type must be thumbnail or header")
	}
	url, err := s.uploadImage(ctx, up, kind, func(name string) string {
		return blob.ProjectImagePath(projectID, name)
	})
	if err != nil {
		return nil, err
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	projects := content.SetProjectImage(profile.Projects, projectID, kind, url)
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// AddSubsection appends an empty subsection to an existing project.
func (s *Service) AddSubsection(ctx context.Context, projectID string) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, p := range profile.Projects {
		if p.ID == projectID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errNotFound("project not found")
	}
	sub := content.NewSubsection(profile.Projects[idx].Subsections)
	projects, err := content.UpsertSubsection(profile.Projects, projectID, sub)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// UpsertSubsection renames an existing subsection or creates one under the
// given id, keeping images and order intact on rename.
func (s *Service) UpsertSubsection(ctx context.Context, projectID, subID string, input UpsertSubsectionInput) (*content.Profile, error) {
	if strings.TrimSpace(subID) == "" {
		return nil, errValidation("subsection id is required")
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	sub := content.Subsection{ID: subID, Images: []string{}}
	for _, p := range profile.Projects {
		if p.ID != projectID {
			continue
		}
		for _, existing := range p.Subsections {
			if existing.ID == subID {
				sub = existing
				break
			}
		}
	}
	sub.Title = input.Title
	projects, err := content.UpsertSubsection(profile.Projects, projectID, sub)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// AttachSubsectionImage uploads a header, navigation or collage image for a
// subsection. Navigation images live in their own path namespace.
func (s *Service) AttachSubsectionImage(ctx context.Context, projectID, subID, kind string, up Upload) (*content.Profile, error) {
	if _, ok := allowedSubsectionImageKinds[kind]; !ok {
		return nil, errValidation("image type must be header, navigation or collage")
	}
	pathFor := func(name string) string {
		if kind == content.ImageNavigation {
			return blob.NavigationImagePath(projectID, subID, name)
		}
		return blob.SubsectionImagePath(projectID, subID, name)
	}
	url, err := s.uploadImage(ctx, up, kind, pathFor)
	if err != nil {
		return nil, err
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := content.SetSubsectionImage(profile.Projects, projectID, subID, kind, url)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// DeleteSubsectionImage removes one collage image by index.
func (s *Service) DeleteSubsectionImage(ctx context.Context, projectID, subID string, index int) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := content.RemoveSubsectionImage(profile.Projects, projectID, subID, index)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

func (s *Service) DeleteSubsection(ctx context.Context, projectID, subID string) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := content.DeleteSubsection(profile.Projects, projectID, subID)
	if err != nil {
		return nil, mapContentErr(err)
	}
	return s.saveAndReload(ctx, map[string]any{"projects": projects})
}

// UpsertBioContainer fills or updates one landing-page container. The list
// is capped; updates to existing ids always go through.
func (s *Service) UpsertBioContainer(ctx context.Context, containerID string, input UpsertBioContainerInput) (*content.Profile, error) {
	if strings.TrimSpace(containerID) == "" {
		return nil, errValidation("container id is required")
	}
	if _, ok := allowedLinkTypes[input.LinkType]; !ok {
		return nil, errValidation("link type must be internal or external")
	}
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	exists := false
	for _, c := range profile.BioContainers {
		if c.ID == containerID {
			exists = true
			break
		}
	}
	if !exists && len(profile.BioContainers) >= content.MaxBioContainers {
		return nil, errValidation(fmt.Sprintf("at most %d bio containers are allowed", content.MaxBioContainers))
	}
	container := content.BioContainer{ID: containerID}
	for _, c := range profile.BioContainers {
		if c.ID == containerID {
			container = c
			break
		}
	}
	container.Title = input.Title
	container.Description = input.Description
	container.LinkURL = input.LinkURL
	container.LinkType = input.LinkType
	if input.ImageURL != "" {
		container.ImageURL = input.ImageURL
	}
	containers := content.UpsertBioContainer(profile.BioContainers, container)
	return s.saveAndReload(ctx, map[string]any{"bioContainers": containers})
}

func (s *Service) DeleteBioContainer(ctx context.Context, containerID string) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	containers := content.DeleteBioContainer(profile.BioContainers, containerID)
	return s.saveAndReload(ctx, map[string]any{"bioContainers": containers})
}

// AttachBioContainerImage uploads an image and writes it onto the container.
func (s *Service) AttachBioContainerImage(ctx context.Context, containerID string, up Upload) (*content.Profile, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, c := range profile.BioContainers {
		if c.ID == containerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errNotFound("bio container not found")
	}
	url, err := s.uploadImage(ctx, up, "bio", func(name string) string {
		return blob.BioContainerImagePath(containerID, name)
	})
	if err != nil {
		return nil, err
	}
	container := profile.BioContainers[idx]
	container.ImageURL = url
	containers := content.UpsertBioContainer(profile.BioContainers, container)
	return s.saveAndReload(ctx, map[string]any{"bioContainers": containers})
}

// ResolveProject matches a URL segment against the project list, trying the
// stored slug first and a title-derived slug second.
func (s *Service) ResolveProject(ctx context.Context, segment string) (content.Project, error) {
	profile, err := s.LoadProfile(ctx)
	if err != nil {
		return content.Project{}, err
	}
	if profile == nil {
		return content.Project{}, errNotFound("project not found")
	}
	project, ok := content.ResolveProject(profile.Projects, strings.TrimSpace(strings.ToLower(segment)))
	if !ok {
		return content.Project{}, errNotFound("project not found")
	}
	return project, nil
}

func (s *Service) ListDesigns(ctx context.Context) ([]store.Design, error) {
	designs, err := s.store.ListDesigns(ctx)
	if err != nil {
		return nil, errPersistence("list designs", err)
	}
	return designs, nil
}

// CreateDesign inserts the row first and attaches the image second, so the
// storage path can embed the store-assigned id. A failed upload leaves the
// row with an empty image URL and surfaces the error.
func (s *Service) CreateDesign(ctx context.Context, input CreateDesignInput, up *Upload) (store.Design, error) {
	if strings.TrimSpace(input.Title) == "" {
		return store.Design{}, errValidation("title is required")
	}
	if up != nil {
		if err := s.validateUpload(*up); err != nil {
			return store.Design{}, err
		}
	}
	id, err := s.store.CreateDesign(ctx, store.Design{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
	})
	if err != nil {
		return store.Design{}, errPersistence("create design", err)
	}
	if up != nil {
		path := blob.DesignImagePath(id, blob.ObjectName("design", up.FileName))
		url, err := s.blob.Upload(ctx, up.Reader, up.Size, path, up.ContentType)
		if err != nil {
			return store.Design{}, errBlob("upload design image", err)
		}
		if err := s.store.UpdateDesign(ctx, id, store.DesignPatch{ImageURL: &url}); err != nil {
			return store.Design{}, errPersistence("attach design image", err)
		}
	}
	design, err := s.store.GetDesign(ctx, id)
	if err != nil {
		return store.Design{}, errPersistence("reload design", err)
	}
	if s.search != nil {
		s.search.IndexDesign(design)
	}
	return design, nil
}

func (s *Service) UpdateDesign(ctx context.Context, designID string, input UpdateDesignInput) (store.Design, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return store.Design{}, errValidation("title cannot be empty")
	}
	patch := store.DesignPatch{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		SortOrder:   input.SortOrder,
	}
	if err := s.store.UpdateDesign(ctx, designID, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Design{}, errNotFound("design not found")
		}
		return store.Design{}, errPersistence("update design", err)
	}
	design, err := s.store.GetDesign(ctx, designID)
	if err != nil {
		return store.Design{}, errPersistence("reload design", err)
	}
	if s.search != nil {
		s.search.IndexDesign(design)
	}
	return design, nil
}

// DeleteDesign removes the row and the search document. Deletion is
// idempotent; uploaded blobs stay behind under designs/<id>/.
func (s *Service) DeleteDesign(ctx context.Context, designID string) error {
	if err := s.store.DeleteDesign(ctx, designID); err != nil {
		return errPersistence("delete design", err)
	}
	if s.search != nil {
		s.search.DeleteDesign(designID)
	}
	return nil
}

func (s *Service) SearchDesigns(ctx context.Context, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, errConfig("search is not configured")
	}
	resp, err := s.search.Search(ctx, q)
	if err != nil {
		return search.Response{}, errPersistence("search designs", err)
	}
	return resp, nil
}

func mapContentErr(err error) error {
	switch {
	case errors.Is(err, content.ErrProjectNotFound):
		return errNotFound("project not found")
	case errors.Is(err, content.ErrSubsectionNotFound):
		return errNotFound("subsection not found")
	case errors.Is(err, content.ErrImageIndex):
		return errValidation("image index out of range")
	default:
		return err
	}
}
