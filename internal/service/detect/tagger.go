package detect

import (
	"strings"

	"brandpulse/internal/domain/post"
)

// Caption length buckets in runes.
const (
	shortCaptionMax  = 100
	mediumCaptionMax = 500
)

// themeKeywords maps a content tag to the caption keywords that trigger it.
// Matching is plain lowercase substring search; no ML anywhere in this path.
var themeKeywords = []struct {
	tag      string
	keywords []string
}{
	{"tutorial", []string{"how to", "tutorial", "step by step", "guide", "tips"}},
	{"giveaway", []string{"giveaway", "win a", "free", "contest", "enter to"}},
	{"behind_the_scenes", []string{"behind the scenes", "bts", "sneak peek", "making of"}},
	{"challenge", []string{"challenge", "try this", "can you"}},
	{"storytelling", []string{"story time", "storytime", "my journey", "what happened"}},
	{"social_proof", []string{"review", "testimonial", "customers", "results"}},
	{"urgency", []string{"limited", "last chance", "ends today", "don't miss"}},
}

// hookKeywords tags the opening device of the caption.
var hookKeywords = []struct {
	tag      string
	keywords []string
}{
	{"question_hook", []string{"?"}},
	{"listicle", []string{"top 5", "top 10", "5 ways", "3 things", "reasons why"}},
	{"curiosity_hook", []string{"you won't believe", "the secret", "nobody talks about", "what if"}},
}

// contentTags derives deterministic tags from caption length, matched
// keywords and media type.
func contentTags(p post.Post) []string {
	var tags []string

	caption := strings.ToLower(p.Caption)

	switch n := len([]rune(p.Caption)); {
	case n == 0:
		tags = append(tags, "no_caption")
	case n < shortCaptionMax:
		tags = append(tags, "short_caption")
	case n < mediumCaptionMax:
		tags = append(tags, "medium_caption")
	default:
		tags = append(tags, "long_caption")
	}

	for _, theme := range themeKeywords {
		for _, kw := range theme.keywords {
			if strings.Contains(caption, kw) {
				tags = append(tags, theme.tag)
				break
			}
		}
	}

	for _, hook := range hookKeywords {
		for _, kw := range hook.keywords {
			if strings.Contains(caption, kw) {
				tags = append(tags, hook.tag)
				break
			}
		}
	}

	switch strings.ToLower(p.MediaType) {
	case "video", "reel", "short":
		tags = append(tags, "video_content")
	case "carousel", "album":
		tags = append(tags, "carousel_content")
	case "image", "photo":
		tags = append(tags, "static_content")
	}

	return tags
}
