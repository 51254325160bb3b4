package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	. "github.com/smartystreets/goconvey/convey"

	"vrewgen/internal/config"
)

const (
	testScript = "첫 번째 장면입니다. 고양이가 걷는다. 두 번째 장면이 시작된다. 강아지가 뛴다."
	testSheet  = "씬,시작,프롬프트\n1-1,첫 번째 장면입니다,a cat\n1-2,두 번째 장면이 시작된다,a dog\n"
)

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "TEMPLATE.vrew")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("project.json")
	if err != nil {
		t.Fatalf("template entry: %v", err)
	}
	if _, err := w.Write([]byte(`{"files":[],"props":{},"transcript":{"scenes":[]}}`)); err != nil {
		t.Fatalf("template write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close template: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	root := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Mode: "test", MaxUploadSize: 32 << 20},
		Storage: config.StorageConfig{
			Type:  "local",
			Local: &config.LocalConfig{BasePath: filepath.Join(root, "store"), BaseURL: "http://localhost/files"},
		},
		Pipeline: config.PipelineConfig{
			TemplatePath: writeTemplate(t, root),
			OutputDir:    filepath.Join(root, "outputs"),
			WorkDir:      filepath.Join(root, "work"),
			TTSVoice:     "va19",
			MaxParallel:  2,
			CleanupAfter: time.Hour,
			SessionStore: config.SessionStoreMemory,
		},
	}
}

type part struct {
	field, name, body string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, p := range parts {
		w, err := mw.CreateFormFile(p.field, p.name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		w.Write([]byte(p.body))
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestServer(t *testing.T) {
	Convey("Given a server with in-memory sessions and local storage", t, func() {
		srv, err := New(testConfig(t))
		So(err, ShouldBeNil)
		e := srv.Engine()

		do := func(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
			var req *http.Request
			if body == nil {
				req = httptest.NewRequest(method, path, nil)
			} else {
				req = httptest.NewRequest(method, path, body)
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)
			return w
		}

		Convey("it is ready", func() {
			w := do(http.MethodGet, "/ready", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("unknown sessions are 404", func() {
			w := do(http.MethodGet, "/api/v1/sessions/nope", nil, "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(t, w).Code, ShouldEqual, 40401)
		})

		Convey("a session without a sheet is rejected", func() {
			body, ct := multipartBody(t, part{"script", "script.txt", testScript})
			w := do(http.MethodPost, "/api/v1/sessions", body, ct)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(t, w).Code, ShouldEqual, 40002)
		})

		Convey("a session runs from upload to download", func() {
			body, ct := multipartBody(t,
				part{"script", "script.txt", testScript},
				part{"sheet", "markers.csv", testSheet},
			)
			w := do(http.MethodPost, "/api/v1/sessions", body, ct)
			So(w.Code, ShouldEqual, http.StatusCreated)

			var info struct {
				ID     string `json:"id"`
				Scenes []any  `json:"scenes"`
			}
			So(json.Unmarshal(decode(t, w).Data, &info), ShouldBeNil)
			So(info.Scenes, ShouldHaveLength, 2)
			base := "/api/v1/sessions/" + info.ID

			w = do(http.MethodGet, "/api/v1/sessions", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, info.ID)

			w = do(http.MethodGet, base+"/prompts", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "001 a cat\n\n003 a dog\n")

			body, ct = multipartBody(t,
				part{"files", "1.png", "one"},
				part{"files", "3.png", "three"},
				part{"files", "4.png", "four"},
			)
			w = do(http.MethodPost, base+"/media", body, ct)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(http.MethodPost, base+"/scenes/1-2/select", bytes.NewBufferString(`{"slot":"B"}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(http.MethodPost, base+"/scenes/1-1/select", bytes.NewBufferString(`{"slot":"B"}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusConflict)

			w = do(http.MethodPost, base+"/scenes/9-9/select", bytes.NewBufferString(`{"slot":"A"}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusNotFound)

			w = do(http.MethodPost, base+"/generate", bytes.NewBufferString(`{"split_size":0}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "script_장면1.vrew")

			w = do(http.MethodGet, base+"/outputs/"+url.PathEscape("script_장면1.vrew"), nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.HasPrefix(w.Body.String(), "PK"), ShouldBeTrue)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "filename*=UTF-8''")

			w = do(http.MethodGet, base+"/outputs/other.vrew", nil, "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("an invalid split size is rejected", func() {
			body, ct := multipartBody(t,
				part{"script", "script.txt", testScript},
				part{"sheet", "markers.csv", testSheet},
			)
			w := do(http.MethodPost, "/api/v1/sessions", body, ct)
			var info struct {
				ID string `json:"id"`
			}
			So(json.Unmarshal(decode(t, w).Data, &info), ShouldBeNil)

			w = do(http.MethodPost, "/api/v1/sessions/"+info.ID+"/generate", bytes.NewBufferString(`{"split_size":-1}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestNewFailsWithoutTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.TemplatePath = filepath.Join(t.TempDir(), "missing.vrew")
	if _, err := New(cfg); err == nil {
		t.Fatal("New() expected error for a missing template")
	}
}

func TestServerCleanup(t *testing.T) {
	Convey("Given stale and fresh entries in the output and work directories", t, func() {
		cfg := testConfig(t)
		srv, err := New(cfg)
		So(err, ShouldBeNil)

		old := time.Now().Add(-2 * cfg.Pipeline.CleanupAfter)
		stale := filepath.Join(cfg.Pipeline.OutputDir, "stale-session")
		So(os.MkdirAll(stale, 0o755), ShouldBeNil)
		So(os.Chtimes(stale, old, old), ShouldBeNil)

		staleWork := filepath.Join(cfg.Pipeline.WorkDir, "old.png")
		So(os.MkdirAll(cfg.Pipeline.WorkDir, 0o755), ShouldBeNil)
		So(os.WriteFile(staleWork, []byte("x"), 0o644), ShouldBeNil)
		So(os.Chtimes(staleWork, old, old), ShouldBeNil)

		fresh := filepath.Join(cfg.Pipeline.OutputDir, "fresh.vrew")
		So(os.WriteFile(fresh, []byte("PK"), 0o644), ShouldBeNil)

		srv.Cleanup(context.Background())

		_, err = os.Stat(stale)
		So(os.IsNotExist(err), ShouldBeTrue)
		_, err = os.Stat(staleWork)
		So(os.IsNotExist(err), ShouldBeTrue)
		_, err = os.Stat(fresh)
		So(err, ShouldBeNil)
	})
}
