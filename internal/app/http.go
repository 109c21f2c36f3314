package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"folio/api/internal/search"
	"folio/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/profile" {
		profile, err := s.service.LoadProfile(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	parts := splitPath(r.URL.Path)

	// GET /api/projects/{slug}
	if r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "api" && parts[1] == "projects" {
		project, err := s.service.ResolveProject(r.Context(), parts[2])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"project": project})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/designs" {
		designs, err := s.service.ListDesigns(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"designs": designPayloads(designs)})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/designs/search" {
		s.handleDesignSearch(w, r)
		return
	}

	// Everything below mutates content and requires the admin token.
	if !s.requireAdmin(w, r) {
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/api/profile" {
		var body UpdateProfileInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		profile, err := s.service.UpdateProfileFields(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/profile/images" {
		up, cleanup, err := s.formUpload(r, true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		defer cleanup()
		profile, err := s.service.UploadProfileImage(r.Context(), *up)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// DELETE /api/profile/images/{index}
	if r.Method == http.MethodDelete && len(parts) == 4 && parts[0] == "api" && parts[1] == "profile" && parts[2] == "images" {
		index, err := strconv.Atoi(parts[3])
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "image index must be a number", nil)
			return
		}
		profile, err := s.service.DeleteProfileImage(r.Context(), index)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// /api/profile/bio-containers/{id}[/image]
	if len(parts) >= 4 && parts[0] == "api" && parts[1] == "profile" && parts[2] == "bio-containers" {
		s.handleBioContainer(w, r, parts)
		return
	}

	// /api/projects/{id}...
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "projects" {
		s.handleProject(w, r, parts)
		return
	}

	// /api/designs...
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "designs" {
		s.handleDesignMutation(w, r, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
		"storage":  map[string]any{"status": "ok"},
		"cache":    map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "error", "error": err.Error()}
	}
	if err := s.service.PingBlob(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["storage"] = map[string]any{"status": "error", "error": err.Error()}
	}
	if err := s.service.PingCache(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["cache"] = map[string]any{"status": "error", "error": err.Error()}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleDesignSearch(w http.ResponseWriter, r *http.Request) {
	query := search.Query{
		Text:     strings.TrimSpace(r.URL.Query().Get("q")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "limit must be a non-negative number", nil)
			return
		}
		query.Limit = limit
	}
	resp, err := s.service.SearchDesigns(r.Context(), query)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleBioContainer(w http.ResponseWriter, r *http.Request, parts []string) {
	containerID := parts[3]

	if r.Method == http.MethodPut && len(parts) == 4 {
		var body UpsertBioContainerInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		profile, err := s.service.UpsertBioContainer(r.Context(), containerID, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 4 {
		profile, err := s.service.DeleteBioContainer(r.Context(), containerID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if r.Method == http.MethodPost && len(parts) == 5 && parts[4] == "image" {
		up, cleanup, err := s.formUpload(r, true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		defer cleanup()
		profile, err := s.service.AttachBioContainerImage(r.Context(), containerID, *up)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProject(w http.ResponseWriter, r *http.Request, parts []string) {
	projectID := parts[2]

	if r.Method == http.MethodPut && len(parts) == 3 {
		var body UpsertProjectInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		profile, err := s.service.UpsertProject(r.Context(), projectID, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 3 {
		profile, err := s.service.DeleteProject(r.Context(), projectID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// POST /api/projects/{id}/images?type=thumbnail|header
	if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "images" {
		up, cleanup, err := s.formUpload(r, true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		defer cleanup()
		kind := r.URL.Query().Get("type")
		if kind == "" {
			kind = "thumbnail"
		}
		profile, err := s.service.AttachProjectImage(r.Context(), projectID, kind, *up)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// POST /api/projects/{id}/subsections
	if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "subsections" {
		profile, err := s.service.AddSubsection(r.Context(), projectID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if len(parts) >= 5 && parts[3] == "subsections" {
		s.handleSubsection(w, r, projectID, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSubsection(w http.ResponseWriter, r *http.Request, projectID string, parts []string) {
	subID := parts[4]

	if r.Method == http.MethodPut && len(parts) == 5 {
		var body UpsertSubsectionInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		profile, err := s.service.UpsertSubsection(r.Context(), projectID, subID, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 5 {
		profile, err := s.service.DeleteSubsection(r.Context(), projectID, subID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// POST /api/projects/{id}/subsections/{sid}/images?type=header|navigation|collage
	if r.Method == http.MethodPost && len(parts) == 6 && parts[5] == "images" {
		up, cleanup, err := s.formUpload(r, true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		defer cleanup()
		kind := r.URL.Query().Get("type")
		if kind == "" {
			kind = "collage"
		}
		profile, err := s.service.AttachSubsectionImage(r.Context(), projectID, subID, kind, *up)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	// DELETE /api/projects/{id}/subsections/{sid}/images/{index}
	if r.Method == http.MethodDelete && len(parts) == 7 && parts[5] == "images" {
		index, err := strconv.Atoi(parts[6])
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "image index must be a number", nil)
			return
		}
		profile, err := s.service.DeleteSubsectionImage(r.Context(), projectID, subID, index)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleDesignMutation(w http.ResponseWriter, r *http.Request, parts []string) {
	// POST /api/designs — multipart form, image optional
	if r.Method == http.MethodPost && len(parts) == 2 {
		up, cleanup, err := s.formUpload(r, false)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		defer cleanup()
		input := CreateDesignInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
		}
		design, err := s.service.CreateDesign(r.Context(), input, up)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"design": designPayload(design)})
		return
	}

	if r.Method == http.MethodPut && len(parts) == 3 {
		var body UpdateDesignInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		design, err := s.service.UpdateDesign(r.Context(), parts[2], body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"design": designPayload(design)})
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 3 {
		if err := s.service.DeleteDesign(r.Context(), parts[2]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// requireAdmin checks the static bearer token on write routes. A blank
// configured token disables writes entirely.
func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := s.service.AdminToken()
	if token == "" {
		writeError(w, http.StatusServiceUnavailable, "CONFIG_ERROR", "admin access is not configured", nil)
		return false
	}
	presented := bearerToken(r)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return false
	}
	return true
}

// formUpload pulls the "image" file out of a multipart form. With required
// set, a missing file is a validation error; otherwise nil is returned.
func (s *HTTPServer) formUpload(r *http.Request, required bool) (*Upload, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, noop, errValidation("request must be multipart form data")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, noop, nil
		}
		return nil, noop, errValidation("image file is required")
	}
	up := &Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
	return up, func() { _ = file.Close() }, nil
}

func designPayload(d store.Design) map[string]any {
	return map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"description": d.Description,
		"category":    d.Category,
		"imageUrl":    d.ImageURL,
		"createdAt":   d.CreatedAt,
		"order":       d.SortOrder,
	}
}

func designPayloads(designs []store.Design) []map[string]any {
	out := make([]map[string]any, 0, len(designs))
	for _, d := range designs {
		out = append(out, designPayload(d))
	}
	return out
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
