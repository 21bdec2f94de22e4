package ssdp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.10:8080/description.xml\r\n" +
		"st: urn:av-openhome-org:service:Product:1\r\n" +
		"CACHE-CONTROL: max-age=1800\r\n\r\n"

	s, ok := parseResponse([]byte(raw), "192.168.1.10")
	assert.True(t, ok)
	assert.Equal(t, "http://192.168.1.10:8080/description.xml", s.location)
	assert.Equal(t, "urn:av-openhome-org:service:Product:1", s.st)
	assert.Equal(t, "192.168.1.10", s.fromIP)
}

func TestParseResponseRejectsNon200(t *testing.T) {
	raw := "HTTP/1.1 404 Not Found\r\nLOCATION: http://x/y\r\nST: z\r\n\r\n"
	_, ok := parseResponse([]byte(raw), "10.0.0.1")
	assert.False(t, ok)
}

// TestOHSupersedesAV is spec.md §8 property 6: a LOCATION seen with both OH
// and AV STs must end up in the usable set exactly once, tagged OpenHome.
func TestOHSupersedesAV(t *testing.T) {
	sightings := []sighting{
		{location: "http://192.168.1.10:8080/d.xml", st: "urn:av-openhome-org:service:Product:1", fromIP: "192.168.1.10"},
		{location: "http://192.168.1.10:8080/d.xml", st: "urn:schemas-upnp-org:service:RenderingControl:1", fromIP: "192.168.1.10"},
	}

	ohSet := map[string]sighting{}
	avSet := map[string]sighting{}
	for _, s := range sightings {
		if contains(s.st, "Product") {
			ohSet[s.location] = s
		} else if contains(s.st, "RenderingControl") {
			avSet[s.location] = s
		}
	}

	usable := make([]sighting, 0)
	for _, s := range ohSet {
		usable = append(usable, s)
	}
	for loc, s := range avSet {
		if _, already := ohSet[loc]; !already {
			usable = append(usable, s)
		}
	}

	assert.Len(t, usable, 1)
	assert.Contains(t, usable[0].st, "Product")
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

func TestIsIgnorableReadError(t *testing.T) {
	assert.True(t, isIgnorableReadError(errors.New("read udp: i/o timeout")))
	assert.True(t, isIgnorableReadError(errors.New("recvfrom: os error 11")))
	assert.True(t, isIgnorableReadError(errors.New("recvfrom: os error 35")))
	assert.False(t, isIgnorableReadError(errors.New("connection refused")))
}
