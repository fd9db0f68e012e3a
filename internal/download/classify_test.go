package download

import (
	"testing"

	"downloader/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAllowedHosts = []string{"instagram.com", "www.instagram.com"}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		kind      string
		shortcode string
		username  string
		pageURL   string
	}{
		{
			name:      "post",
			raw:       "https://www.instagram.com/p/CxYz123/",
			kind:      models.ContentKindPost,
			shortcode: "CxYz123",
			pageURL:   "https://www.instagram.com/p/CxYz123/",
		},
		{
			name:      "post without trailing slash and with query",
			raw:       "https://instagram.com/p/CxYz123?igsh=abc",
			kind:      models.ContentKindPost,
			shortcode: "CxYz123",
			pageURL:   "https://instagram.com/p/CxYz123/",
		},
		{
			name:      "reel",
			raw:       "https://www.instagram.com/reel/Reel42/",
			kind:      models.ContentKindPost,
			shortcode: "Reel42",
			pageURL:   "https://www.instagram.com/reel/Reel42/",
		},
		{
			name:     "story",
			raw:      "https://www.instagram.com/stories/someuser/3141592653/",
			kind:     models.ContentKindStory,
			username: "someuser",
			pageURL:  "https://www.instagram.com/stories/someuser/3141592653/",
		},
		{
			name:     "story without id",
			raw:      "https://www.instagram.com/stories/someuser",
			kind:     models.ContentKindStory,
			username: "someuser",
			pageURL:  "https://www.instagram.com/stories/someuser/",
		},
		{
			name:      "uppercase host and surrounding space",
			raw:       "  https://WWW.Instagram.com/p/abc/  ",
			kind:      models.ContentKindPost,
			shortcode: "abc",
			pageURL:   "https://www.instagram.com/p/abc/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify(tt.raw, testAllowedHosts)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.kind)
			assert.Equal(t, tt.shortcode, got.shortcode)
			assert.Equal(t, tt.username, got.username)
			assert.Equal(t, tt.pageURL, got.pageURL)
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrInvalidURL},
		{"relative", "/p/abc/", ErrInvalidURL},
		{"ftp scheme", "ftp://www.instagram.com/p/abc/", ErrInvalidURL},
		{"foreign host", "https://example.com/p/abc/", ErrHostNotAllowed},
		{"lookalike host", "https://instagram.com.evil.example/p/abc/", ErrHostNotAllowed},
		{"profile page", "https://www.instagram.com/someuser/", ErrUnsupportedURL},
		{"bare post prefix", "https://www.instagram.com/p/", ErrUnsupportedURL},
		{"explore", "https://www.instagram.com/explore/tags/go/", ErrUnsupportedURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classify(tt.raw, testAllowedHosts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassify_AllowedHostsIgnoreCase(t *testing.T) {
	got, err := classify("https://instagram.com/p/abc/", []string{"Instagram.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/p/abc/", got.pageURL)

	got, err = classify("https://WWW.Instagram.COM/reel/xyz/", []string{"www.instagram.com"})
	require.NoError(t, err)
	assert.Equal(t, "xyz", got.shortcode)

	_, err = classify("https://example.com/p/abc/", []string{"Instagram.com"})
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestDownstreamError(t *testing.T) {
	err := &DownstreamError{Err: ErrUnsupportedURL}

	assert.Equal(t, "Download failed: Unsupported URL type", err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	assert.True(t, IsDownstream(err))
	assert.False(t, IsDownstream(ErrUnsupportedURL))
}
