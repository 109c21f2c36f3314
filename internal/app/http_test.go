package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"folio/api/internal/content"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

func newTestServer() (*HTTPServer, *fakeStore, *fakeBlob, *fakeSearch) {
	svc, st, bl, se := newTestService()
	return NewHTTPServer(svc, "*"), st, bl, se
}

func doRequest(server *HTTPServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer test-token")
	return req
}

func multipartImage(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if fileName != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="`+fileName+`"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.WriteString(part, "png-bytes"); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestProfileAbsentReturnsNull(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if value, ok := payload["profile"]; !ok || value != nil {
		t.Fatalf("expected null profile, got %v", payload)
	}
}

func TestWriteRoutesRequireAdminToken(t *testing.T) {
	server, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{"name":"Avery"}`))
	rr := doRequest(server, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{"name":"Avery"}`))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rr = doRequest(server, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rr.Code)
	}
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	server, _, _, _ := newTestServer()

	req := authed(httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{"name":"Avery","title":"Designer"}`)))
	rr := doRequest(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	var payload struct {
		Profile content.Profile `json:"profile"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Profile.Name != "Avery" || payload.Profile.Title != "Designer" {
		t.Fatalf("profile not persisted: %+v", payload.Profile)
	}
}

func TestProjectLookupBySlug(t *testing.T) {
	server, st, _, _ := newTestServer()
	seedProfile(t, st, content.Profile{Projects: []content.Project{{ID: "project-1", Title: "Brand Identity"}}})

	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/projects/brand-identity", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, httptest.NewRequest(http.MethodGet, "/api/projects/no-such-project", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rr.Code)
	}
}

func TestProfileImageUploadRoute(t *testing.T) {
	server, _, bl, _ := newTestServer()
	body, contentType := multipartImage(t, nil, "photo.png")

	req := authed(httptest.NewRequest(http.MethodPost, "/api/profile/images", body))
	req.Header.Set("Content-Type", contentType)
	rr := doRequest(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(bl.uploads) != 1 {
		t.Fatalf("expected one upload, got %v", bl.uploads)
	}
}

func TestProfileImageUploadRequiresFile(t *testing.T) {
	server, _, _, _ := newTestServer()
	body, contentType := multipartImage(t, map[string]string{"note": "no file"}, "")

	req := authed(httptest.NewRequest(http.MethodPost, "/api/profile/images", body))
	req.Header.Set("Content-Type", contentType)
	rr := doRequest(server, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing file, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDeleteProfileImageBadIndex(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, authed(httptest.NewRequest(http.MethodDelete, "/api/profile/images/abc", nil)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric index, got %d", rr.Code)
	}
}

func TestProjectImageUploadDefaultsToThumbnail(t *testing.T) {
	server, _, _, _ := newTestServer()
	body, contentType := multipartImage(t, nil, "thumb.png")

	req := authed(httptest.NewRequest(http.MethodPost, "/api/projects/project-1/images", body))
	req.Header.Set("Content-Type", contentType)
	rr := doRequest(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Profile content.Profile `json:"profile"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Profile.Projects) != 1 || payload.Profile.Projects[0].ImageURL == "" {
		t.Fatalf("expected thumbnail on materialized slot, got %+v", payload.Profile.Projects)
	}
}

func TestSubsectionLifecycleOverHTTP(t *testing.T) {
	server, st, _, _ := newTestServer()
	seedProfile(t, st, content.Profile{Projects: []content.Project{{ID: "project-1", Title: "One", Subsections: []content.Subsection{}}}})

	rr := doRequest(server, authed(httptest.NewRequest(http.MethodPost, "/api/projects/project-1/subsections", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("add subsection: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Profile content.Profile `json:"profile"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	subID := payload.Profile.Projects[0].Subsections[0].ID

	req := authed(httptest.NewRequest(http.MethodPut, "/api/projects/project-1/subsections/"+subID, bytes.NewBufferString(`{"title":"Process"}`)))
	rr = doRequest(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("rename subsection: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, authed(httptest.NewRequest(http.MethodDelete, "/api/projects/project-1/subsections/"+subID, nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete subsection: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Profile.Projects[0].Subsections) != 0 {
		t.Fatalf("subsection not deleted: %+v", payload.Profile.Projects[0].Subsections)
	}
}

func TestCreateDesignOverHTTP(t *testing.T) {
	server, _, _, _ := newTestServer()
	body, contentType := multipartImage(t, map[string]string{"title": "Poster", "category": "print"}, "poster.png")

	req := authed(httptest.NewRequest(http.MethodPost, "/api/designs", body))
	req.Header.Set("Content-Type", contentType)
	rr := doRequest(server, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Design struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			ImageURL string `json:"imageUrl"`
		} `json:"design"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Design.Title != "Poster" || payload.Design.ImageURL == "" {
		t.Fatalf("unexpected design payload: %+v", payload.Design)
	}
	if !strings.Contains(payload.Design.ImageURL, payload.Design.ID) {
		t.Fatalf("image URL should be keyed by design id, got %q", payload.Design.ImageURL)
	}
}

func TestListDesignsUsesCamelCaseKeys(t *testing.T) {
	server, st, _, _ := newTestServer()
	if _, err := st.CreateDesign(context.Background(), store.Design{Title: "Poster", ImageURL: "http://media.test/p.png"}); err != nil {
		t.Fatalf("seed design: %v", err)
	}

	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/designs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"imageUrl"`) || !strings.Contains(rr.Body.String(), `"createdAt"`) {
		t.Fatalf("expected camelCase design keys, got %s", rr.Body.String())
	}
}

func TestDesignSearchRoute(t *testing.T) {
	server, _, _, se := newTestServer()
	se.searchFn = func(_ context.Context, q search.Query) (search.Response, error) {
		if q.Text != "poster" || q.Category != "print" || q.Limit != 5 {
			t.Fatalf("query not parsed, got %+v", q)
		}
		return search.Response{Results: []search.Result{{ID: "dsg_1", Title: "Poster"}}, Total: 1, Query: q.Text}, nil
	}

	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/designs/search?q=poster&category=print&limit=5", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload search.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Total != 1 || len(payload.Results) != 1 {
		t.Fatalf("unexpected search payload: %+v", payload)
	}
}

func TestDesignSearchRejectsBadLimit(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/designs/search?limit=nope", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	server, st, _, _ := newTestServer()
	st.pingFn = func(context.Context) error {
		return errors.New("connection refused")
	}

	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"not_ready"`) {
		t.Fatalf("expected not_ready status, got %s", rr.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, authed(httptest.NewRequest(http.MethodGet, "/api/nope", nil)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	server, _, _, _ := newTestServer()
	rr := doRequest(server, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}
