package download

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"downloader/internal/models"
)

// target is a classified content URL.
type target struct {
	kind      string
	shortcode string
	username  string
	// pageURL is the canonical page address; it doubles as the cache key.
	pageURL string
}

// classify validates raw against the allowed hosts and works out which kind
// of content it points at. Posts are /p/<shortcode> or /reel/<shortcode>;
// stories are /stories/<username>[/<id>].
func classify(raw string, allowedHosts []string) (*target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	allowed := slices.ContainsFunc(allowedHosts, func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), host)
	})
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) < 2 {
		return nil, ErrUnsupportedURL
	}

	base := u.Scheme + "://" + canonicalHost(u)
	switch segments[0] {
	case "p", "reel":
		return &target{
			kind:      models.ContentKindPost,
			shortcode: segments[1],
			pageURL:   base + "/" + segments[0] + "/" + url.PathEscape(segments[1]) + "/",
		}, nil
	case "stories":
		page := base + "/stories/" + url.PathEscape(segments[1]) + "/"
		if len(segments) > 2 {
			page += url.PathEscape(segments[2]) + "/"
		}
		return &target{
			kind:     models.ContentKindStory,
			username: segments[1],
			pageURL:  page,
		}, nil
	default:
		return nil, ErrUnsupportedURL
	}
}

func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		return net.JoinHostPort(host, port)
	}
	return host
}
