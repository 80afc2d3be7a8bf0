package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gorilla/mux"

	"audiofx/cache"
	"audiofx/codec"
	"audiofx/config"
	"audiofx/effects"
	"audiofx/logger"
	"audiofx/model"
	"audiofx/repository"
	"audiofx/storage"
	"audiofx/task"
)

// allowedExtensions lists the upload formats the service accepts. Formats
// without a decoder (flac/aac/m4a) can be uploaded but fail at decode time.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".m4a":  true,
	".ogg":  true,
}

// APIHandler holds the collaborators every request handler needs. The task
// engine is passed in explicitly; there is no package-level registry.
type APIHandler struct {
	engine      *task.Engine
	trackRepo   repository.TrackRepository // may be nil
	resultCache *cache.ResultCache         // may be nil
	store       *storage.Store             // may be nil
	cfg         *config.Config
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(
	engine *task.Engine,
	trackRepo repository.TrackRepository,
	resultCache *cache.ResultCache,
	store *storage.Store,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		engine:      engine,
		trackRepo:   trackRepo,
		resultCache: resultCache,
		store:       store,
		cfg:         cfg,
	}
}

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// sanitizeFilename strips a user-supplied filename down to a safe basename.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = multipleSpaces.ReplaceAllString(base, "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")
	// Keep path traversal characters out even after the regex pass.
	base = strings.Trim(base, ".")
	if len(base) > 150 {
		base = base[len(base)-150:]
	}
	return base
}

func allowedFile(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// UploadHandler accepts a multipart audio upload, stores it in the upload
// directory and registers it in the track library when a metadata store is
// configured.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large, maximum size is %dMB", h.cfg.MaxUploadSize/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file part in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	if !allowedFile(header.Filename) {
		writeError(w, http.StatusBadRequest,
			"file type not allowed, supported formats: MP3, WAV, FLAC, AAC, M4A, OGG")
		return
	}

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	destPath := filepath.Join(h.cfg.UploadDir, filename)
	dest, err := os.Create(destPath)
	if err != nil {
		logger.Error("failed to create upload file", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer dest.Close()

	size, err := dest.ReadFrom(file)
	if err != nil {
		logger.Error("failed to store upload", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	h.registerTrack(filename, destPath, size)

	logger.Info("file uploaded",
		logger.String("filename", filename), logger.Int64("size", size))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "file uploaded successfully",
		"filename": filename,
		"size":     size,
	})
}

// registerTrack records upload metadata when the repository is available.
// Decode failures leave the record with zeroed audio properties; the upload
// itself already succeeded.
func (h *APIHandler) registerTrack(filename, path string, size int64) {
	if h.trackRepo == nil {
		return
	}

	track := &model.Track{
		Title:     strings.TrimSuffix(filename, filepath.Ext(filename)),
		FileName:  filename,
		FilePath:  path,
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		SizeBytes: size,
	}
	if buf, err := codec.Decode(path); err == nil {
		track.Duration = buf.Duration().Seconds()
		track.SampleRate = buf.SampleRate
		track.Channels = buf.NumChannels()
	} else {
		logger.Warn("could not probe uploaded audio",
			logger.String("filename", filename), logger.ErrorField(err))
	}

	if err := h.trackRepo.CreateTrack(track); err != nil {
		logger.Error("failed to register track",
			logger.String("filename", filename), logger.ErrorField(err))
	}
}

// TaskStatusHandler reports a task snapshot. Unknown ids get a distinct 404,
// never a failed status.
func (h *APIHandler) TaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := h.engine.Status(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TracksHandler lists registered uploads.
func (h *APIHandler) TracksHandler(w http.ResponseWriter, r *http.Request) {
	if h.trackRepo == nil {
		writeJSON(w, http.StatusOK, []*model.Track{})
		return
	}
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		logger.Error("failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// AudioInfoHandler probes an uploaded file and reports its properties.
func (h *APIHandler) AudioInfoHandler(w http.ResponseWriter, r *http.Request) {
	filename := sanitizeFilename(mux.Vars(r)["filename"])
	path := filepath.Join(h.cfg.UploadDir, filename)

	stat, err := os.Stat(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}

	buf, err := codec.Decode(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("could not decode audio: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename":   filename,
		"duration":   buf.Duration().Seconds(),
		"sampleRate": buf.SampleRate,
		"channels":   buf.NumChannels(),
		"fileSize":   stat.Size(),
		"format":     strings.ToLower(filepath.Ext(filename)),
	})
}

// DownloadHandler serves a processed output file.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	filename := sanitizeFilename(mux.Vars(r)["filename"])
	if filename == "" {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.cfg.ProcessedDir, filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// ListEffectsHandler lists the supported effects.
func (h *APIHandler) ListEffectsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"effects": effects.Names(),
	})
}

// StatusHandler reports service metadata.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "active",
		"service":           "audiofx processing API",
		"version":           "1.0.0",
		"supportedFormats":  exts,
		"supportedEffects":  effects.Names(),
		"maxFileSizeMb":     h.cfg.MaxUploadSize / (1024 * 1024),
		"tasksInFlight":     h.engine.Count(),
		"taskRetentionSecs": int(h.cfg.TaskRetention.Seconds()),
	})
}
