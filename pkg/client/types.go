package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// StoryCreate is the payload for creating a story.
type StoryCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Style       string `json:"style"`
	Themes      string `json:"themes"`
	Request     string `json:"request"`
}

// Story is a story as returned by the data API. Setting, MainCharacters and
// Summary stay nil until the story has been generated.
type Story struct {
	ID             int       `json:"id"`
	AuthorID       int       `json:"author_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Style          string    `json:"style"`
	Themes         string    `json:"themes"`
	Request        string    `json:"request"`
	Setting        *string   `json:"setting"`
	MainCharacters *string   `json:"main_characters"`
	Summary        *string   `json:"summary"`
	Modified       bool      `json:"modified"`
	IsPublic       bool      `json:"is_public"`
	Tags           []string  `json:"tags"`
	CreatedOn      Timestamp `json:"created_on"`
	UpdatedOn      Timestamp `json:"updated_on"`
}

// Timestamp is a server time. The server writes naive ISO 8601 times in UTC,
// which time.Time cannot decode on its own.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	parsed, err := cast.ToTimeInDefaultLocationE(raw, time.UTC)
	if err != nil {
		return fmt.Errorf("decoding timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}
