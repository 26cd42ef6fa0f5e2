// Package compose renders the outgoing notification message from a template
// and a broadcast snapshot.
package compose

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ytlive-notifier/pkg/notifier"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// jst is the fixed UTC+9 civil zone used for the {now} placeholder. The host
// timezone must not leak into the rendered message.
var jst = time.FixedZone("JST", 9*60*60)

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// Compose renders the template against the broadcast and derives link facets
// from the final text. Placeholder substitution is literal text replacement:
// every occurrence of {url}, {video_id}, {title} and {now} is replaced, and
// unknown placeholders are left verbatim.
func Compose(template string, b *notifier.Broadcast, now time.Time) notifier.Message {
	url := WatchURL(b.VideoID)
	text := strings.NewReplacer(
		"{url}", url,
		"{video_id}", b.VideoID,
		"{title}", b.Title,
		"{now}", now.In(jst).Format("2006-01-02 15:04"),
	).Replace(template)

	if strings.TrimSpace(text) == "" {
		// The post body must never be blank, even when an embed card alone
		// would carry the information.
		if b.Title != "" {
			text = b.Title + " " + url
		} else {
			text = url
		}
	}

	return notifier.Message{
		Text:   text,
		URL:    url,
		Facets: LinkFacets(text),
	}
}

// LinkFacets finds every http(s) URL in text and records its byte range in
// the UTF-8 encoding. The social protocol addresses rich-text facets by byte
// offset, so all scanning happens on raw bytes, not rune indices.
func LinkFacets(text string) []notifier.Facet {
	var facets []notifier.Facet
	data := []byte(text)

	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		// Maximal non-whitespace run starting at i.
		end := i
		for end < len(data) {
			r2, size2 := utf8.DecodeRune(data[end:])
			if unicode.IsSpace(r2) {
				break
			}
			end += size2
		}

		word := string(data[i:end])
		if strings.HasPrefix(word, "http://") || strings.HasPrefix(word, "https://") {
			facets = append(facets, notifier.Facet{ByteStart: i, ByteEnd: end, URI: word})
		}
		i = end
	}

	return facets
}
