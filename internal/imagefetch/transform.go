package imagefetch

import (
	"fmt"
	"image"
	"net/url"
	"strings"
)

const uploadSegment = "/upload/"

// TransformURL rewrites photo URLs on a transform-capable CDN to request a
// face-centered crop at the target cell size with automatic format and
// quality. Other URLs, and URLs that already carry a transform, are returned
// unchanged.
func (f *Fetcher) TransformURL(rawURL string, size image.Point) string {
	if size.X <= 0 || size.Y <= 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || !f.isCDNHost(u.Host) {
		return rawURL
	}

	idx := strings.Index(u.Path, uploadSegment)
	if idx < 0 {
		return rawURL
	}
	rest := u.Path[idx+len(uploadSegment):]
	if hasTransform(rest) {
		return rawURL
	}

	transform := fmt.Sprintf("c_fill,g_face,w_%d,h_%d,f_auto,q_auto", size.X, size.Y)
	u.Path = u.Path[:idx+len(uploadSegment)] + transform + "/" + rest
	u.RawPath = ""
	return u.String()
}

func (f *Fetcher) isCDNHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range f.cdnHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return true
		}
	}
	return false
}

// hasTransform reports whether the first path segment after /upload/ is
// already a transformation (comma-separated key_value pairs).
func hasTransform(rest string) bool {
	first, _, found := strings.Cut(rest, "/")
	if !found {
		return false
	}
	for _, part := range strings.Split(first, ",") {
		k, _, ok := strings.Cut(part, "_")
		if !ok || len(k) == 0 || len(k) > 3 {
			return false
		}
	}
	return first != ""
}
