package parser

import "strings"

// Client is the coarse platform reported in a request's User-Agent header.
type Client struct {
	OS      string
	Browser string
}

type marker struct {
	name     string
	contains []string
	excludes []string
}

// Order matters: mobile platforms before their desktop relatives, and
// Chromium derivatives before Chrome.
var osMarkers = []marker{
	{name: "Android", contains: []string{"android"}},
	{name: "iOS", contains: []string{"iphone", "ipad"}},
	{name: "Windows", contains: []string{"windows"}},
	{name: "macOS", contains: []string{"mac os"}},
	{name: "Linux", contains: []string{"linux"}},
}

var browserMarkers = []marker{
	{name: "Edge", contains: []string{"edg/", "edge/"}},
	{name: "Opera", contains: []string{"opr/", "opera"}},
	{name: "Chrome", contains: []string{"chrome", "crios"}},
	{name: "Firefox", contains: []string{"firefox", "fxios"}},
	{name: "Safari", contains: []string{"safari"}},
	{name: "curl", contains: []string{"curl/"}},
}

// ParseUserAgent classifies ua. Unrecognized values report "Unknown".
func ParseUserAgent(ua string) Client {
	lower := strings.ToLower(ua)
	return Client{
		OS:      match(lower, osMarkers),
		Browser: match(lower, browserMarkers),
	}
}

func match(ua string, markers []marker) string {
	for _, m := range markers {
		for _, needle := range m.contains {
			if strings.Contains(ua, needle) {
				return m.name
			}
		}
	}
	return "Unknown"
}
