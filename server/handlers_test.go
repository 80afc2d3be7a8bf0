package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofx/audio"
	"audiofx/codec"
	"audiofx/config"
	"audiofx/model"
	"audiofx/task"
)

type testEnv struct {
	handler *APIHandler
	engine  *task.Engine
	router  *mux.Router
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		UploadDir:     filepath.Join(dir, "uploads"),
		ProcessedDir:  filepath.Join(dir, "processed"),
		MaxUploadSize: 16 * 1024 * 1024,
		TaskRetention: time.Hour,
		TaskSweep:     time.Hour,
	}
	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0755))
	require.NoError(t, os.MkdirAll(cfg.ProcessedDir, 0755))

	engine := task.New(cfg.TaskRetention, cfg.TaskSweep)
	t.Cleanup(engine.Close)

	handler := NewAPIHandler(engine, nil, nil, nil, cfg)

	router := mux.NewRouter()
	router.HandleFunc("/api/upload", handler.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/separate", handler.SeparateHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/effects", handler.ApplyEffectHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/effects", handler.ListEffectsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks/{id}", handler.TaskStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", handler.TracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{filename}", handler.AudioInfoHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/status", handler.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/download/{filename}", handler.DownloadHandler).Methods(http.MethodGet)

	return &testEnv{handler: handler, engine: engine, router: router, cfg: cfg}
}

// writeTestWAV puts a short stereo tone-plus-clicks file in the upload dir.
func (env *testEnv) writeTestWAV(t *testing.T, name string, seconds float64) {
	t.Helper()
	const rate = 44100
	n := int(seconds * rate)
	buf := audio.New(2, n, rate)
	for i := 0; i < n; i++ {
		ts := float64(i) / rate
		v := 0.4 * math.Sin(2*math.Pi*440*ts)
		if i%(rate/4) < 64 {
			v += 0.5
		}
		buf.Samples[0][i] = v
		buf.Samples[1][i] = v
	}
	require.NoError(t, codec.Encode(buf, filepath.Join(env.cfg.UploadDir, name)))
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) waitTask(t *testing.T, id string) model.TaskView {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		view, err := env.engine.Status(id)
		require.NoError(t, err)
		if view.Status.Terminal() {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not finish in time")
	return model.TaskView{}
}

func taskID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["taskId"])
	return resp["taskId"]
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"song.mp3", "song.mp3"},
		{"../../etc/passwd", "passwd"},
		{"my song (live).wav", "my_song_live.wav"},
		{"weird$chars%.ogg", "weirdchars.ogg"},
		{"...dots...", "dots"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "test song.wav")
	require.NoError(t, err)
	part.Write([]byte("RIFF fake wav payload"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test_song.wav", resp["filename"])

	_, err = os.Stat(filepath.Join(env.cfg.UploadDir, "test_song.wav"))
	assert.NoError(t, err, "uploaded file must land in the upload dir")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "malware.exe")
	part.Write([]byte("nope"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMissingFilePart(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("name", "no file here")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeparateEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "song.wav", 0.5)

	rec := env.do(t, http.MethodPost, "/api/separate", map[string]string{"filename": "song.wav"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	view := env.waitTask(t, taskID(t, rec))
	require.Equal(t, model.TaskCompleted, view.Status, view.Error)
	require.NotNil(t, view.Result)
	require.NotNil(t, view.Result.Separation)

	assert.Equal(t, "song_vocals.wav", view.Result.Separation.VocalPath)
	assert.Equal(t, "song_instruments.wav", view.Result.Separation.InstrumentalPath)
	for _, name := range []string{"song_vocals.wav", "song_instruments.wav"} {
		_, err := os.Stat(filepath.Join(env.cfg.ProcessedDir, name))
		assert.NoError(t, err, name)
	}
}

func TestSeparateMissingFile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/separate", map[string]string{"filename": "nothing.wav"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeparateMissingFilename(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/separate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeparateUndecodableFileFailsTask(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(env.cfg.UploadDir, "broken.wav"), []byte("not a wav"), 0644))

	rec := env.do(t, http.MethodPost, "/api/separate", map[string]string{"filename": "broken.wav"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	view := env.waitTask(t, taskID(t, rec))
	assert.Equal(t, model.TaskFailed, view.Status)
	assert.Contains(t, view.Error, "decode")
}

func TestApplyEffectEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "song.wav", 0.3)

	rec := env.do(t, http.MethodPost, "/api/effects", map[string]interface{}{
		"filename":  "song.wav",
		"effect":    "echo",
		"intensity": 60,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	view := env.waitTask(t, taskID(t, rec))
	require.Equal(t, model.TaskCompleted, view.Status, view.Error)
	require.NotNil(t, view.Result)
	require.NotNil(t, view.Result.Effect)

	assert.Equal(t, "song_echo_60.wav", view.Result.Effect.OutputPath)
	_, err := os.Stat(filepath.Join(env.cfg.ProcessedDir, "song_echo_60.wav"))
	assert.NoError(t, err)
}

func TestApplyEffectUnknownEffect(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "song.wav", 0.2)

	rec := env.do(t, http.MethodPost, "/api/effects", map[string]interface{}{
		"filename": "song.wav",
		"effect":   "flanger",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "available effects")
}

func TestApplyEffectMissingFile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/effects", map[string]interface{}{
		"filename": "ghost.wav",
		"effect":   "reverb",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskStatusUnknownID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/tasks/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "task not found")
}

func TestTaskStatusViaHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "song.wav", 0.2)

	rec := env.do(t, http.MethodPost, "/api/effects", map[string]interface{}{
		"filename":  "song.wav",
		"effect":    "distortion",
		"intensity": 40,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := taskID(t, rec)
	env.waitTask(t, id)

	statusRec := env.do(t, http.MethodGet, "/api/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, statusRec.Code)

	var view model.TaskView
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &view))
	assert.Equal(t, model.TaskCompleted, view.Status)
	assert.Equal(t, 100, view.Progress)
}

func TestListEffects(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/effects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Effects []string `json:"effects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Effects, 7)
	assert.Contains(t, resp.Effects, "reverb")
	assert.Contains(t, resp.Effects, "equalizer")
}

func TestAudioInfo(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "probe.wav", 0.25)

	rec := env.do(t, http.MethodGet, "/api/audio/probe.wav", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "probe.wav", resp["filename"])
	assert.Equal(t, float64(44100), resp["sampleRate"])
	assert.Equal(t, float64(2), resp["channels"])
	assert.InDelta(t, 0.25, resp["duration"].(float64), 0.01)
}

func TestAudioInfoMissing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/audio/ghost.wav", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)
	content := []byte("processed audio bytes")
	require.NoError(t, os.WriteFile(
		filepath.Join(env.cfg.ProcessedDir, "out.wav"), content, 0644))

	rec := env.do(t, http.MethodGet, "/download/out.wav", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "out.wav")
}

func TestDownloadMissing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/download/ghost.wav", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTracksWithoutStore(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/tracks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServiceStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp["status"])
	assert.Len(t, resp["supportedEffects"], 7)
}

func TestConcurrentEffectSubmissions(t *testing.T) {
	env := newTestEnv(t)
	env.writeTestWAV(t, "song.wav", 0.2)

	ids := make([]string, 0, 4)
	for i, effect := range []string{"echo", "distortion", "compressor", "chorus"} {
		rec := env.do(t, http.MethodPost, "/api/effects", map[string]interface{}{
			"filename":  "song.wav",
			"effect":    effect,
			"intensity": 20 * (i + 1),
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
		ids = append(ids, taskID(t, rec))
	}

	for i, id := range ids {
		view := env.waitTask(t, id)
		assert.Equal(t, model.TaskCompleted, view.Status, fmt.Sprintf("task %d: %s", i, view.Error))
	}
}
