// Package enrich provides the geolocation and user-agent-parsing
// collaborators used by C7's Enrichers. Both are named out of scope for
// the core by spec.md §4.7 ("concrete enrichers ... are out of scope for
// the core — the package ships stubs"); this package ships exactly that —
// stubs with a real interface so a production deployment can swap in a
// real provider without touching the session manager.
package enrich

import (
	"context"
	"strings"
)

// Locator resolves an IP address to a human-readable location. Called
// lazily and cached into the session row on first successful lookup
// (spec.md §6).
type Locator interface {
	Lookup(ctx context.Context, ip string) (string, error)
}

// StaticLocator is the out-of-scope stub: it never fails and never
// actually geolocates, satisfying the interface so callers exercise the
// real enrichment call path.
type StaticLocator struct{}

func (StaticLocator) Lookup(_ context.Context, ip string) (string, error) {
	if ip == "" {
		return "", nil
	}
	return "Unknown", nil
}

// DeviceInfo is the structured result of parsing a User-Agent header.
type DeviceInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// UAParser formats a device_info string from a raw User-Agent header.
type UAParser interface {
	Parse(ua string) DeviceInfo
}

// HeuristicUAParser is a best-effort substring-based stub, sufficient for
// populating a readable device_info field without depending on a full
// user-agent-database library (out of scope per spec.md §4.7).
type HeuristicUAParser struct{}

func (HeuristicUAParser) Parse(ua string) DeviceInfo {
	lower := strings.ToLower(ua)
	info := DeviceInfo{Browser: "Unknown", OS: "Unknown", DeviceType: "desktop"}

	switch {
	case strings.Contains(lower, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(lower, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(lower, "safari"):
		info.Browser = "Safari"
	case strings.Contains(lower, "edge"):
		info.Browser = "Edge"
	}

	switch {
	case strings.Contains(lower, "windows"):
		info.OS = "Windows"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"):
		info.OS = "iOS"
		info.DeviceType = "mobile"
	case strings.Contains(lower, "mac os"):
		info.OS = "macOS"
	case strings.Contains(lower, "android"):
		info.OS = "Android"
		info.DeviceType = "mobile"
	case strings.Contains(lower, "linux"):
		info.OS = "Linux"
	}

	if strings.Contains(lower, "mobile") {
		info.DeviceType = "mobile"
	}

	return info
}

// Describe renders a DeviceInfo into the human-readable device_info string
// persisted on a session row.
func Describe(d DeviceInfo) string {
	return d.Browser + " on " + d.OS
}
