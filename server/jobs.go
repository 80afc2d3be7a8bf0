package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"audiofx/codec"
	"audiofx/effects"
	"audiofx/logger"
	"audiofx/model"
	"audiofx/separation"
	"audiofx/task"
)

type separateRequest struct {
	Filename string `json:"filename"`
}

type effectRequest struct {
	Filename  string `json:"filename"`
	Effect    string `json:"effect"`
	Intensity int    `json:"intensity"`
}

// SeparateHandler submits a vocal/instrumental separation task for an
// uploaded file and returns the task id immediately.
func (h *APIHandler) SeparateHandler(w http.ResponseWriter, r *http.Request) {
	var req separateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename required in request body")
		return
	}

	filename := sanitizeFilename(req.Filename)
	inputPath := filepath.Join(h.cfg.UploadDir, filename)
	if _, err := os.Stat(inputPath); err != nil {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}

	// A cached separation for this file short-circuits the computation.
	if cached, ok := h.resultCache.GetSeparationResult(filename); ok && h.outputsExist(cached.VocalPath, cached.InstrumentalPath) {
		id := h.engine.SubmitCompleted(model.TaskKindSeparate, &model.TaskResult{Separation: cached})
		logger.Info("separation served from cache", logger.String("filename", filename))
		writeJSON(w, http.StatusAccepted, map[string]string{"taskId": id})
		return
	}

	id := h.engine.Submit(model.TaskKindSeparate, h.separationWork(filename, inputPath))
	logger.Info("separation submitted",
		logger.String("filename", filename), logger.String("taskId", id))
	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": id})
}

// ApplyEffectHandler submits an effect task. The effect name is validated up
// front so an unknown effect is an immediate 400; intensity is clamped, not
// rejected.
func (h *APIHandler) ApplyEffectHandler(w http.ResponseWriter, r *http.Request) {
	var req effectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON body required")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename required")
		return
	}
	if req.Effect == "" {
		writeError(w, http.StatusBadRequest, "effect name required")
		return
	}
	if _, err := effects.Parse(req.Effect); err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("effect not supported, available effects: %s",
				strings.Join(effects.Names(), ", ")))
		return
	}

	filename := sanitizeFilename(req.Filename)
	inputPath := filepath.Join(h.cfg.UploadDir, filename)
	if _, err := os.Stat(inputPath); err != nil {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}

	cfg := model.EffectConfig{Name: strings.ToLower(req.Effect), Intensity: req.Intensity}

	if outputPath, ok := h.resultCache.GetEffectResult(filename, cfg.Name, cfg.Intensity); ok && h.outputsExist(outputPath) {
		id := h.engine.SubmitCompleted(model.TaskKindEffect,
			&model.TaskResult{Effect: &model.EffectResult{OutputPath: outputPath}})
		logger.Info("effect served from cache",
			logger.String("filename", filename), logger.String("effect", cfg.Name))
		writeJSON(w, http.StatusAccepted, map[string]string{"taskId": id})
		return
	}

	id := h.engine.Submit(model.TaskKindEffect, h.effectWork(filename, inputPath, cfg))
	logger.Info("effect submitted",
		logger.String("filename", filename),
		logger.String("effect", cfg.Name),
		logger.Int("intensity", cfg.Intensity),
		logger.String("taskId", id))
	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": id})
}

// outputsExist reports whether every named processed output is still on disk.
func (h *APIHandler) outputsExist(names ...string) bool {
	for _, name := range names {
		if name == "" {
			return false
		}
		if _, err := os.Stat(filepath.Join(h.cfg.ProcessedDir, name)); err != nil {
			return false
		}
	}
	return true
}

// separationWork builds the background unit of work for a separation task.
// Decode failures surface as task failures, matching the polling contract.
func (h *APIHandler) separationWork(filename, inputPath string) task.Work {
	return func(report func(percent int)) (*model.TaskResult, error) {
		buf, err := codec.Decode(inputPath)
		if err != nil {
			return nil, fmt.Errorf("decode failed: %w", err)
		}

		// Separation reports 10..90; encoding fills the rest.
		result, err := separation.Separate(buf, report)
		if err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		vocalsName := base + "_vocals.wav"
		instrumentsName := base + "_instruments.wav"

		vocalsPath := filepath.Join(h.cfg.ProcessedDir, vocalsName)
		instrumentsPath := filepath.Join(h.cfg.ProcessedDir, instrumentsName)

		if err := codec.Encode(result.Vocals, vocalsPath); err != nil {
			return nil, err
		}
		if err := codec.Encode(result.Instruments, instrumentsPath); err != nil {
			return nil, err
		}
		report(95)

		h.store.UploadFile(vocalsPath, "processed/"+vocalsName)
		h.store.UploadFile(instrumentsPath, "processed/"+instrumentsName)

		sep := &model.SeparationResult{
			VocalPath:        vocalsName,
			InstrumentalPath: instrumentsName,
		}
		h.resultCache.PutSeparationResult(filename, sep)
		return &model.TaskResult{Separation: sep}, nil
	}
}

// effectWork builds the background unit of work for an effect task.
func (h *APIHandler) effectWork(filename, inputPath string, cfg model.EffectConfig) task.Work {
	return func(report func(percent int)) (*model.TaskResult, error) {
		buf, err := codec.Decode(inputPath)
		if err != nil {
			return nil, fmt.Errorf("decode failed: %w", err)
		}

		processed, err := effects.Apply(buf, cfg.Name, cfg.Intensity, report)
		if err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		outputName := fmt.Sprintf("%s_%s_%d.wav", base, cfg.Name, cfg.Intensity)
		outputPath := filepath.Join(h.cfg.ProcessedDir, outputName)

		if err := codec.Encode(processed, outputPath); err != nil {
			return nil, err
		}
		report(95)

		h.store.UploadFile(outputPath, "processed/"+outputName)
		h.resultCache.PutEffectResult(filename, cfg.Name, cfg.Intensity, outputName)

		return &model.TaskResult{Effect: &model.EffectResult{OutputPath: outputName}}, nil
	}
}
