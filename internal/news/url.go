package news

import (
	"net/url"
	"sort"
	"strings"
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"cmp":     {},
}

// CanonicalURL lowercases scheme and host, drops default ports, fragments,
// trailing slashes and tracking parameters, and sorts the remaining query.
// It returns "" for anything that is not an absolute URL.
func CanonicalURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" && !isDefaultPort(parsed.Scheme, port) {
		host += ":" + port
	}
	parsed.Host = host
	parsed.Fragment = ""
	parsed.User = nil

	path := parsed.Path
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if path == "" {
		path = "/"
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if _, tracking := trackingQueryKeys[lower]; tracking || strings.HasPrefix(lower, "utm_") {
			q.Del(key)
		}
	}
	for _, values := range q {
		sort.Strings(values)
	}
	// Encode sorts by key.
	parsed.RawQuery = q.Encode()

	return parsed.String()
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// DedupeByURL drops repeated records of the same article from one source,
// keeping the first. Different sources linking the same page are kept so
// they can group together.
func DedupeByURL(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		canonical := CanonicalURL(a.URL)
		if canonical == "" {
			canonical = strings.TrimSpace(a.URL)
		}
		key := a.Source + "|" + canonical
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
