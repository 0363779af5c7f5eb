package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/download"
	"github.com/clipkeep/clipkeep/internal/folders"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/transcode"
)

type fakeProber struct {
	info *model.VideoInfo
	err  error
}

func (f *fakeProber) Probe(_ context.Context, _ string) (*model.VideoInfo, error) {
	return f.info, f.err
}

func sampleInfo(id string) *model.VideoInfo {
	return &model.VideoInfo{
		ID:              id,
		URL:             "https://youtube.com/watch?v=" + id,
		Title:           "Sample Title",
		Channel:         "Sample Channel",
		DurationSeconds: 95,
		Duration:        "1:35",
		Platform:        model.PlatformYouTube,
		Formats: []model.FormatOption{
			{Resolution: "1080p", Height: 1080, Available: true},
			{Resolution: "720p", Height: 720, Available: true},
		},
		DefaultResolution: "1080p",
	}
}

type testStack struct {
	server *Server
	cfg    *config.Store
	lib    *library.Catalog
	root   string
}

func newTestServer(t *testing.T, configured bool) *testStack {
	t.Helper()
	cfg, err := config.NewAt(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	root := t.TempDir()
	prober := &fakeProber{info: sampleInfo("abc123")}
	lib := library.NewCatalog(cfg, prober)
	mgr := folders.NewManager(cfg, lib)
	if configured {
		if _, err := cfg.Update(model.SettingsPatch{ContentRootPath: &root}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if err := mgr.EnsureStructure(); err != nil {
			t.Fatalf("EnsureStructure failed: %v", err)
		}
	}
	orch := download.NewOrchestrator(cfg, prober, lib, mgr, transcode.NewService())
	return &testStack{
		server: NewServer(cfg, prober, orch, lib, mgr, "1.2.3"),
		cfg:    cfg,
		lib:    lib,
		root:   root,
	}
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, json.RawMessage, string) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env.Success, env.Data, env.Error
}

func addVideo(t *testing.T, st *testStack, id, folder, filename string) {
	t.Helper()
	dir := filepath.Join(st.root, library.VideosDirName, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := st.lib.AttachFile(context.Background(), id, model.FileKindVideo, filename, folder, sampleInfo(id)); err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec = doJSON(t, st.server, http.MethodGet, "/api/version", nil)
	success, data, _ := decodeEnvelope(t, rec)
	if !success {
		t.Fatal("version reported failure")
	}
	var v map[string]string
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if v["version"] != "1.2.3" {
		t.Errorf("version = %q", v["version"])
	}
}

func TestInfo(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/info", map[string]string{"url": "https://youtube.com/watch?v=abc123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	success, data, _ := decodeEnvelope(t, rec)
	if !success {
		t.Fatal("info reported failure")
	}
	var info model.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Title != "Sample Title" || info.DefaultResolution != "1080p" {
		t.Errorf("info = %+v", info)
	}
}

func TestInfoProbeFailure(t *testing.T) {
	st := newTestServer(t, true)
	st.server.prober = &fakeProber{err: model.ErrProbeFailed}

	rec := doJSON(t, st.server, http.MethodPost, "/api/info", map[string]string{"url": "https://example.com/x"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, expected 502", rec.Code)
	}
	success, _, errMsg := decodeEnvelope(t, rec)
	if success || errMsg == "" {
		t.Errorf("expected failure envelope, got success=%v error=%q", success, errMsg)
	}
}

func TestInfoBadBody(t *testing.T) {
	st := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/info", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	st.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", rec.Code)
	}
}

func TestProgressIdle(t *testing.T) {
	st := newTestServer(t, true)
	rec := doJSON(t, st.server, http.MethodGet, "/api/progress", nil)
	_, data, _ := decodeEnvelope(t, rec)
	var snap model.JobSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status != model.JobStatusIdle {
		t.Errorf("status = %s, expected idle", snap.Status)
	}
}

func TestDownloadValidation(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/download", model.DownloadRequest{
		URL: "https://youtube.com/watch?v=abc123", Type: model.DownloadTypeVideo, Resolution: "999p",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("off-ladder resolution: status = %d, expected 400", rec.Code)
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/download", model.DownloadRequest{
		URL: "not-a-url", Type: model.DownloadTypeVideo, Resolution: "720p",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad url: status = %d, expected 400", rec.Code)
	}
}

func TestCancelWithoutJob(t *testing.T) {
	st := newTestServer(t, true)
	rec := doJSON(t, st.server, http.MethodPost, "/api/cancel", nil)
	_, data, _ := decodeEnvelope(t, rec)
	var result map[string]bool
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["cancelled"] {
		t.Error("cancel reported true with no job")
	}
}

func TestSaveLinkFlow(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/save-link", map[string]string{"url": "https://youtube.com/watch?v=abc123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	_, data, _ := decodeEnvelope(t, rec)
	var result struct {
		Item    model.MediaItem `json:"item"`
		Created bool            `json:"created"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Created || !result.Item.LinkOnly {
		t.Errorf("result = %+v", result)
	}
	if result.Item.Folder != model.DefaultFolderSentinel {
		t.Errorf("folder = %q, expected the default", result.Item.Folder)
	}

	// Saving the same URL again is idempotent
	rec = doJSON(t, st.server, http.MethodPost, "/api/save-link", map[string]string{"url": "https://youtube.com/watch?v=abc123"})
	_, data, _ = decodeEnvelope(t, rec)
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Created {
		t.Error("duplicate save reported created")
	}

	// The item shows up in the library listing
	rec = doJSON(t, st.server, http.MethodGet, "/api/library", nil)
	_, data, _ = decodeEnvelope(t, rec)
	var items []model.MediaItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 1 || items[0].ID != "abc123" {
		t.Errorf("items = %+v", items)
	}
}

func TestLibraryUnconfigured(t *testing.T) {
	st := newTestServer(t, false)
	rec := doJSON(t, st.server, http.MethodGet, "/api/library", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, expected 409", rec.Code)
	}

	// Folder listing degrades to an empty, unconfigured answer instead
	rec = doJSON(t, st.server, http.MethodGet, "/api/folders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("folders status = %d", rec.Code)
	}
	_, data, _ := decodeEnvelope(t, rec)
	var listing struct {
		Folders    []model.Folder `json:"folders"`
		Configured bool           `json:"configured"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		t.Fatalf("decode folders: %v", err)
	}
	if listing.Configured || len(listing.Folders) != 0 {
		t.Errorf("listing = %+v", listing)
	}
}

func TestFolderLifecycle(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/folders", map[string]string{"name": "Movies"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/folders", map[string]string{"name": "Movies"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, expected 409", rec.Code)
	}

	rec = doJSON(t, st.server, http.MethodGet, "/api/folders", nil)
	_, data, _ := decodeEnvelope(t, rec)
	var listing struct {
		Folders    []model.Folder `json:"folders"`
		Configured bool           `json:"configured"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		t.Fatalf("decode folders: %v", err)
	}
	if !listing.Configured {
		t.Error("configured flag not set")
	}
	list := listing.Folders
	if len(list) != 2 || !list[0].IsDefault || list[1].Name != "Movies" {
		t.Errorf("folders = %+v", list)
	}

	rec = doJSON(t, st.server, http.MethodPut, "/api/folders/Movies", map[string]string{"new_name": "Films"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, st.server, http.MethodDelete, "/api/folders/Films", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, st.server, http.MethodDelete, "/api/folders/"+model.DefaultFolderSentinel, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("default delete status = %d, expected 409", rec.Code)
	}
}

func TestRenameDefaultFolder(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/rename-default-folder", map[string]string{"name": "Inbox"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if st.cfg.DefaultFolder() != "Inbox" {
		t.Errorf("settings default = %q", st.cfg.DefaultFolder())
	}
}

func TestMoveAndDeleteVideo(t *testing.T) {
	st := newTestServer(t, true)
	addVideo(t, st, "vid1", model.DefaultFolderSentinel, "clip.mp4")
	if err := os.MkdirAll(filepath.Join(st.root, library.VideosDirName, "Keep"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	rec := doJSON(t, st.server, http.MethodPost, "/api/videos/move", map[string]string{
		"filename":      "clip.mp4",
		"source_folder": model.DefaultFolderSentinel,
		"target_folder": "Keep",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/delete-video", map[string]string{
		"folder":   "Keep",
		"filename": "clip.mp4",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, err := st.lib.Get("vid1"); err == nil {
		t.Error("item survived delete")
	}
}

func TestTagsEndpoints(t *testing.T) {
	st := newTestServer(t, true)
	addVideo(t, st, "vid1", model.DefaultFolderSentinel, "clip.mp4")

	rec := doJSON(t, st.server, http.MethodPost, "/api/tags/vid1", map[string][]string{"tags": {"#go", "music"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, st.server, http.MethodGet, "/api/tags", nil)
	_, data, _ := decodeEnvelope(t, rec)
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "music" {
		t.Errorf("tags = %v", tags)
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/tags/missing", map[string][]string{"tags": {"x"}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, expected 404", rec.Code)
	}
}

func TestUpdateMetadataEndpoint(t *testing.T) {
	st := newTestServer(t, true)
	addVideo(t, st, "vid1", model.DefaultFolderSentinel, "clip.mp4")

	rec := doJSON(t, st.server, http.MethodPost, "/api/update-metadata/vid1", map[string]string{"title": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	_, data, _ := decodeEnvelope(t, rec)
	var item model.MediaItem
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Title != "Renamed" {
		t.Errorf("title = %q", item.Title)
	}
}

func TestStream(t *testing.T) {
	st := newTestServer(t, true)
	addVideo(t, st, "vid1", model.DefaultFolderSentinel, "clip.mp4")

	req := httptest.NewRequest(http.MethodGet, "/api/stream/"+model.DefaultFolderSentinel+"/vid1", nil)
	rec := httptest.NewRecorder()
	st.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "0123456789" {
		t.Errorf("body = %q", rec.Body.String())
	}

	// Byte ranges are honored for seeking
	req = httptest.NewRequest(http.MethodGet, "/api/stream/"+model.DefaultFolderSentinel+"/vid1", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec = httptest.NewRecorder()
	st.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("range status = %d, expected 206", rec.Code)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("range body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stream/Wrong/vid1", nil)
	rec = httptest.NewRecorder()
	st.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong folder status = %d, expected 404", rec.Code)
	}
}

func TestThumbnailMissing(t *testing.T) {
	st := newTestServer(t, true)
	rec := doJSON(t, st.server, http.MethodGet, "/api/thumbnails/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	st := newTestServer(t, false)

	rec := doJSON(t, st.server, http.MethodGet, "/api/settings", nil)
	_, data, _ := decodeEnvelope(t, rec)
	var view struct {
		model.Settings
		Configured bool `json:"configured"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if view.Configured {
		t.Error("fresh store reported configured")
	}
	if view.DefaultFolderName != model.DefaultFolderSentinel {
		t.Errorf("default folder = %q", view.DefaultFolderName)
	}

	root := st.root
	rec = doJSON(t, st.server, http.MethodPost, "/api/settings", map[string]string{"content_path": root, "theme": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	_, data, _ = decodeEnvelope(t, rec)
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !view.Configured || view.Theme != model.ThemeDark {
		t.Errorf("settings = %+v", view)
	}

	// Configuring the root materializes the library skeleton
	for _, dir := range []string{library.VideosDirName, library.MetadataDirName, library.ThumbnailsDirName} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("missing %s after configure: %v", dir, err)
		}
	}
}

func TestSettingsRejectsDefaultFolderPatch(t *testing.T) {
	st := newTestServer(t, true)

	rec := doJSON(t, st.server, http.MethodPost, "/api/settings", map[string]string{"default_folder": "Somewhere"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	if st.cfg.DefaultFolder() != model.DefaultFolderSentinel {
		t.Errorf("default folder changed to %q", st.cfg.DefaultFolder())
	}
}

func TestDownloadLater(t *testing.T) {
	st := newTestServer(t, true)

	// Save a link first, then promote it
	rec := doJSON(t, st.server, http.MethodPost, "/api/save-link", map[string]string{"url": "https://youtube.com/watch?v=abc123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("save-link status = %d", rec.Code)
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/download-later", map[string]string{"id": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, expected 404", rec.Code)
	}

	rec = doJSON(t, st.server, http.MethodPost, "/api/download-later", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty id status = %d, expected 400", rec.Code)
	}
}
