package server

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"audiofx/codec"
	"audiofx/config"
	"audiofx/logger"
	"audiofx/model"
	"audiofx/repository"
)

// watchUploadDir registers audio files dropped directly into the upload
// directory, bypassing the API. Runs until done is closed.
func watchUploadDir(cfg *config.Config, trackRepo repository.TrackRepository, done chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create upload watcher", logger.ErrorField(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.UploadDir); err != nil {
		logger.Error("failed to watch upload directory",
			logger.String("dir", cfg.UploadDir), logger.ErrorField(err))
		return
	}
	logger.Info("watching upload directory", logger.String("dir", cfg.UploadDir))

	seen := make(map[string]bool)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !allowedFile(event.Name) || seen[event.Name] {
				continue
			}
			seen[event.Name] = true
			go ingestDroppedFile(event.Name, trackRepo)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("upload watcher error", logger.ErrorField(err))
		case <-done:
			return
		}
	}
}

// ingestDroppedFile waits for the file size to settle, then records the track.
// Copies into the directory arrive incrementally; registering too early would
// store truncated metadata.
func ingestDroppedFile(path string, trackRepo repository.TrackRepository) {
	var lastSize int64 = -1
	for i := 0; i < 30; i++ {
		stat, err := os.Stat(path)
		if err != nil {
			return
		}
		if stat.Size() == lastSize {
			break
		}
		lastSize = stat.Size()
		time.Sleep(time.Second)
	}

	filename := filepath.Base(path)
	track := &model.Track{
		Title:     strings.TrimSuffix(filename, filepath.Ext(filename)),
		FileName:  filename,
		FilePath:  path,
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		SizeBytes: lastSize,
	}
	if buf, err := codec.Decode(path); err == nil {
		track.Duration = buf.Duration().Seconds()
		track.SampleRate = buf.SampleRate
		track.Channels = buf.NumChannels()
	}

	if err := trackRepo.CreateTrack(track); err != nil {
		logger.Error("failed to register dropped file",
			logger.String("filename", filename), logger.ErrorField(err))
		return
	}
	logger.Info("registered dropped file", logger.String("filename", filename))
}
