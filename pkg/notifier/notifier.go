// Package notifier contains the core domain types for the live-broadcast notification service.
package notifier

// Broadcast is a snapshot of a channel's current live broadcast. It is
// produced fresh on every lookup and never persisted; only the video id is
// durably recorded. A channel that is not live is represented by a nil
// *Broadcast, not a zero-value one.
type Broadcast struct {
	VideoID      string // Platform video identifier, unique per broadcast
	Title        string // Broadcast title, may be empty
	ThumbnailURL string // Highest-resolution thumbnail available, may be empty
}

// State is the sole durable entity: the marker suppressing duplicate
// announcements. After a successful publish for broadcast X the marker holds
// X's video id before the process exits.
type State struct {
	LastNotifiedVideoID string `json:"last_notified_video_id"`
}

// Facet is a link annotation addressed by byte offsets into the UTF-8
// encoding of the post text. The social protocol's rich-text layer consumes
// byte ranges, not character indices.
type Facet struct {
	ByteStart int
	ByteEnd   int
	URI       string
}

// Message is the fully rendered notification ready for publishing.
type Message struct {
	Text   string  // Rendered post body, never blank
	URL    string  // Canonical watch URL of the broadcast
	Facets []Facet // Link spans found in Text, in byte order
}

// EmbedMode selects the attachment style for the outgoing post.
type EmbedMode string

const (
	EmbedNone  EmbedMode = "none"  // Text and facets only
	EmbedImage EmbedMode = "image" // Thumbnail uploaded as an image blob
	EmbedCard  EmbedMode = "card"  // External link-card preview
)

// Valid reports whether the mode is one of the recognized variants.
func (m EmbedMode) Valid() bool {
	switch m {
	case EmbedNone, EmbedImage, EmbedCard:
		return true
	}
	return false
}

// LookupMode selects how the live broadcast is detected.
type LookupMode string

const (
	LookupAPI    LookupMode = "api"    // YouTube Data API v3 search
	LookupScrape LookupMode = "scrape" // Channel live-page scrape, no API quota
)

// Valid reports whether the mode is one of the recognized variants.
func (m LookupMode) Valid() bool {
	switch m {
	case LookupAPI, LookupScrape:
		return true
	}
	return false
}
