package model

// Blog is one diary post, either written by hand or generated from the
// transcriptions of recently uploaded videos.
type Blog struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`

	// Source videos when the post was generated, with whatever
	// transcriptions succeeded at the time.
	Videos VideoList `gorm:"type:text" json:"videos,omitempty"`

	// Flat list of the source video URLs for easy access
	VideoURLs StringList `gorm:"type:text" json:"videoUrls,omitempty"`

	// The concatenated, labeled transcription text the post was built from
	Transcription string `json:"transcription,omitempty"`

	GeneratedFromVideo bool `json:"generatedFromVideo"`

	// Unix millisecond timestamp, set by the database layer
	CreatedAt int64 `gorm:"not null;autoCreateTime:milli" json:"created_at"`
}

func (Blog) TableName() string { return "blogs" }
