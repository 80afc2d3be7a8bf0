package model

import "time"

// Track represents an uploaded source audio file in the library.
type Track struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"size:255" json:"title"`
	FileName   string    `gorm:"size:255;uniqueIndex" json:"fileName"`
	FilePath   string    `gorm:"size:512" json:"-"` // Absolute path on disk, not exposed in API
	Format     string    `gorm:"size:16" json:"format"`
	Duration   float64   `json:"duration"` // Seconds
	SampleRate int       `json:"sampleRate"`
	Channels   int       `json:"channels"`
	SizeBytes  int64     `json:"fileSize"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName overrides the GORM table name.
func (Track) TableName() string {
	return "tracks"
}
