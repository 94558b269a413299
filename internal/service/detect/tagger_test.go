package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"brandpulse/internal/domain/post"
)

func TestContentTags(t *testing.T) {
	testCases := []struct {
		name     string
		post     post.Post
		expected []string
	}{
		{
			name:     "empty caption",
			post:     post.Post{},
			expected: []string{"no_caption"},
		},
		{
			name:     "short tutorial caption",
			post:     post.Post{Caption: "How to warm up before leg day"},
			expected: []string{"short_caption", "tutorial"},
		},
		{
			name:     "question hook",
			post:     post.Post{Caption: "Did you know this about protein?"},
			expected: []string{"short_caption", "question_hook"},
		},
		{
			name:     "giveaway with urgency",
			post:     post.Post{Caption: "GIVEAWAY! Last chance to enter, ends today"},
			expected: []string{"short_caption", "giveaway", "urgency"},
		},
		{
			name:     "long caption",
			post:     post.Post{Caption: strings.Repeat("a", 600)},
			expected: []string{"long_caption"},
		},
		{
			name:     "medium caption",
			post:     post.Post{Caption: strings.Repeat("a", 200)},
			expected: []string{"medium_caption"},
		},
		{
			name:     "reel tagged as video content",
			post:     post.Post{Caption: "new drop", MediaType: "reel"},
			expected: []string{"short_caption", "video_content"},
		},
		{
			name:     "carousel media",
			post:     post.Post{Caption: "new drop", MediaType: "Carousel"},
			expected: []string{"short_caption", "carousel_content"},
		},
		{
			name:     "photo media",
			post:     post.Post{Caption: "new drop", MediaType: "photo"},
			expected: []string{"short_caption", "static_content"},
		},
		{
			name:     "unknown media type adds no format tag",
			post:     post.Post{Caption: "new drop", MediaType: "livestream"},
			expected: []string{"short_caption"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, contentTags(tc.post))
		})
	}
}

func TestContentTagsKeywordMatchedOncePerTheme(t *testing.T) {
	// Multiple keywords of the same theme must not duplicate the tag.
	tags := contentTags(post.Post{Caption: "how to build a step by step guide"})
	count := 0
	for _, tag := range tags {
		if tag == "tutorial" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
