package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL(t *testing.T) {
	c := New(Options{})

	tests := []struct {
		name        string
		url         string
		errContains string
	}{
		{"https", "https://query.wikidata.org/sparql", ""},
		{"http", "http://example.com", ""},
		{"file scheme", "file:///etc/passwd", "scheme"},
		{"gopher scheme", "gopher://example.com", "scheme"},
		{"localhost", "http://localhost:8080/", "localhost"},
		{"sub localhost", "http://api.localhost/", "localhost"},
		{"loopback", "http://127.0.0.1/", "blocked"},
		{"private", "http://192.168.1.10/", "blocked"},
		{"metadata", "http://169.254.169.254/latest", "blocked"},
		{"ipv6 loopback", "http://[::1]/", "blocked"},
		{"mapped loopback", "http://[::ffff:127.0.0.1]/", "blocked"},
		{"credentials", "http://user@example.com/", "credentials"},
		{"no host", "http:///path", "hostname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CheckURL(tt.url)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestIsSpecialUse(t *testing.T) {
	assert.True(t, isSpecialUse(netip.MustParseAddr("10.1.2.3")))
	assert.True(t, isSpecialUse(netip.MustParseAddr("fd00::1")))
	assert.False(t, isSpecialUse(netip.MustParseAddr("8.8.8.8")))
	assert.False(t, isSpecialUse(netip.MustParseAddr("2606:4700::1111")))
}

func TestGetJSON(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": 42}`))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "cersei-test/1.0", AllowPrivate: true})
	var body struct {
		Answer int `json:"answer"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &body))
	assert.Equal(t, 42, body.Answer)
	assert.Equal(t, "cersei-test/1.0", gotUA)
}

func TestGetJSON_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(Options{AllowPrivate: true}).GetJSON(context.Background(), srv.URL, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestGetJSON_BlocksLoopbackByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	err := New(Options{}).GetJSON(context.Background(), srv.URL, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Options{Timeout: 50 * time.Millisecond, AllowPrivate: true})
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
	assert.Error(t, err)
}
