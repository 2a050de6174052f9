package parser

import (
	"regexp"
	"strings"
)

// Media kinds assigned by the detector. MediaGeneric is used when a
// placeholder matched but no specific kind keyword did.
const (
	MediaGeneric  = "media"
	MediaImage    = "image"
	MediaVideo    = "video"
	MediaAudio    = "audio"
	MediaSticker  = "sticker"
	MediaGIF      = "gif"
	MediaDocument = "document"
)

// Placeholder phrases WhatsApp substitutes for stripped media, in both
// languages the exports come in, plus the "(file attached)" variants for
// common extensions.
var mediaIndicators = []string{
	"<media omitted>",
	"<multimedia omitido>",
	"<imagen omitida>",
	"<video omitido>",
	"<audio omitido>",
	"<documento omitido>",
	"<sticker omitted>",
	"image omitted",
	"video omitted",
	"audio omitted",
	"document omitted",
	"gif omitted",
	".jpg (file attached)",
	".mp4 (file attached)",
	".opus (file attached)",
	".pdf (file attached)",
	".webp (file attached)",
}

// docx must come before doc in the alternation or the match stops one
// character short of the filename.
var attachmentPattern = regexp.MustCompile(`(?i)(\S+\.(jpg|jpeg|png|gif|mp4|mov|avi|opus|ogg|mp3|pdf|docx|doc|webp))`)

// detectMedia inspects message content for media placeholders or
// file-attachment patterns. The placeholder pass runs first; only when
// it finds nothing does the filename pass run, which also recovers the
// attached file name.
func detectMedia(content string) (hasMedia bool, mediaType, mediaFilename string) {
	lower := strings.ToLower(content)
	for _, indicator := range mediaIndicators {
		if strings.Contains(lower, indicator) {
			return true, classifyIndicator(indicator), ""
		}
	}

	if g := attachmentPattern.FindStringSubmatch(content); g != nil {
		return true, classifyExtension(strings.ToLower(g[2])), g[1]
	}

	return false, "", ""
}

// classifyIndicator derives the media kind from the matched placeholder
// phrase itself.
func classifyIndicator(phrase string) string {
	switch {
	case containsAny(phrase, "image", "imagen", ".jpg", ".png", ".webp"):
		return MediaImage
	case containsAny(phrase, "video", ".mp4"):
		return MediaVideo
	case containsAny(phrase, "audio", ".opus", ".ogg"):
		return MediaAudio
	case strings.Contains(phrase, "sticker"):
		return MediaSticker
	case strings.Contains(phrase, "gif"):
		return MediaGIF
	case containsAny(phrase, "document", "documento", ".pdf"):
		return MediaDocument
	default:
		return MediaGeneric
	}
}

func classifyExtension(ext string) string {
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return MediaImage
	case "mp4", "mov", "avi":
		return MediaVideo
	case "opus", "ogg", "mp3":
		return MediaAudio
	default:
		return MediaDocument
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
