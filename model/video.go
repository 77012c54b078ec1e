// Package model defines database models
package model

// Video is one uploaded media asset.
//
// When Segments is non-empty the source was compressed and uploaded as
// independent time slices; URL then points at the first segment only and the
// full set must be consulted for complete content. Segments are always kept
// ordered by source time offset.
type Video struct {
	// Generated client-side style: millisecond timestamp + random suffix.
	// Never reused.
	ID       string `gorm:"primaryKey" json:"id"`
	Filename string `json:"filename"`

	// Durable address of the primary content. Immutable once set.
	URL string `json:"url"`

	// Optional audio-only rendition used for faster transcription. Set at
	// most once, after the primary upload.
	AudioURL string `json:"audioUrl,omitempty"`

	// Populated by the transcription service. Empty until it succeeds.
	Transcription string `json:"transcription,omitempty"`

	Segments VideoList `gorm:"type:text" json:"segments,omitempty"`

	Size int64 `json:"size"`

	// Unix millisecond timestamp, set by the database layer
	CreatedAt int64 `gorm:"not null;autoCreateTime:milli" json:"created_at"`
}

func (Video) TableName() string { return "videos" }
