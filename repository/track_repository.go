package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"audiofx/model"
)

// TrackRepository defines the interface for upload metadata operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) error
	GetTrackByFileName(fileName string) (*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	DeleteTrack(id int64) error
}

// gormTrackRepository implements TrackRepository on GORM/MySQL.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a repository on the given connection.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// CreateTrack inserts the track, or refreshes the existing record when the
// same file name was already registered.
func (r *gormTrackRepository) CreateTrack(track *model.Track) error {
	existing, err := r.GetTrackByFileName(track.FileName)
	if err != nil {
		return err
	}
	if existing != nil {
		track.ID = existing.ID
		track.CreatedAt = existing.CreatedAt
		if err := r.db.Save(track).Error; err != nil {
			return fmt.Errorf("failed to update track %s: %w", track.FileName, err)
		}
		return nil
	}
	if err := r.db.Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track %s: %w", track.FileName, err)
	}
	return nil
}

// GetTrackByFileName returns the track with the given stored file name, or
// nil when none exists.
func (r *gormTrackRepository) GetTrackByFileName(fileName string) (*model.Track, error) {
	var track model.Track
	err := r.db.Where("file_name = ?", fileName).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track %s: %w", fileName, err)
	}
	return &track, nil
}

// GetAllTracks returns all registered uploads, newest first.
func (r *gormTrackRepository) GetAllTracks() ([]*model.Track, error) {
	var tracks []*model.Track
	if err := r.db.Order("created_at DESC").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	return tracks, nil
}

// DeleteTrack removes a track record by id.
func (r *gormTrackRepository) DeleteTrack(id int64) error {
	if err := r.db.Delete(&model.Track{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete track %d: %w", id, err)
	}
	return nil
}
