package util

import (
	"net/url"
	"strings"
)

// AbsoluteURL resolves href against base. Already-absolute links pass
// through; unparseable input comes back as-is so the caller can log it.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// LastPathSegment returns the final element of the URL path, e.g. the
// company id Infopark embeds at the end of a job detail link.
func LastPathSegment(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// SameHostURL rebuilds path onto the scheme+host of raw.
func SameHostURL(raw, path string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + path
}
