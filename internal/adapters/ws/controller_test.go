package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/draftroom/pulse/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin header", nil, "", "api.example.com", true},
		{"empty list same host", nil, "https://api.example.com", "api.example.com", true},
		{"empty list cross host", nil, "https://evil.example.com", "api.example.com", false},
		{"empty list bad origin url", nil, "::://", "api.example.com", false},
		{"listed origin", []string{"https://draftroom.example.com"}, "https://draftroom.example.com", "api.example.com", true},
		{"listed origin case-insensitive", []string{"https://Draftroom.example.com"}, "https://draftroom.example.com", "api.example.com", true},
		{"unlisted origin", []string{"https://draftroom.example.com"}, "https://evil.example.com", "api.example.com", false},
		{"wildcard", []string{"*"}, "https://anywhere.example.com", "api.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := originChecker(tt.allowed)
			req := httptest.NewRequest("GET", "http://"+tt.host+"/api/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(req))
		})
	}
}

func TestWSConnTrySendBackpressure(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 1)}

	assert.NoError(t, c.TrySend(core.Frame(`{}`)))
	assert.ErrorIs(t, c.TrySend(core.Frame(`{}`)), ErrBackpressure)
}

func TestWSConnTrySendAfterClose(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 1)}
	c.closed = true

	assert.Error(t, c.TrySend(core.Frame(`{}`)))
}
