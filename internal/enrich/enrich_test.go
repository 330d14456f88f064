package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticLocator_Lookup(t *testing.T) {
	var l StaticLocator

	got, err := l.Lookup(context.Background(), "203.0.113.5")
	assert.NoError(t, err)
	assert.Equal(t, "Unknown", got)

	got, err = l.Lookup(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestHeuristicUAParser_Parse(t *testing.T) {
	var p HeuristicUAParser

	cases := []struct {
		name string
		ua   string
		want DeviceInfo
	}{
		{
			name: "chrome on windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
			want: DeviceInfo{Browser: "Chrome", OS: "Windows", DeviceType: "desktop"},
		},
		{
			name: "safari on iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1",
			want: DeviceInfo{Browser: "Safari", OS: "iOS", DeviceType: "mobile"},
		},
		{
			name: "firefox on android",
			ua:   "Mozilla/5.0 (Android 14; Mobile) Firefox/121.0",
			want: DeviceInfo{Browser: "Firefox", OS: "Android", DeviceType: "mobile"},
		},
		{
			name: "unrecognized",
			ua:   "SomeCustomAgent/1.0",
			want: DeviceInfo{Browser: "Unknown", OS: "Unknown", DeviceType: "desktop"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, p.Parse(c.ua))
		})
	}
}

func TestDescribe(t *testing.T) {
	got := Describe(DeviceInfo{Browser: "Chrome", OS: "Windows", DeviceType: "desktop"})
	assert.Equal(t, "Chrome on Windows", got)
}
