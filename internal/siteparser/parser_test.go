package siteparser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const page = `<!doctype html>
<html><head>
<title>Acme Tools | Built to last</title>
<meta name="description" content="  Hand tools for   people who build things. ">
<meta property="og:site_name" content="Acme">
<meta name="theme-color" content="#ff6600">
<link rel="icon" href="/favicon.png">
</head><body>
<h1>Tools that never quit</h1>
<h2>Hammers</h2>
<p>short</p>
<p>Our forged steel hammers are balanced for all-day work on any job site.</p>
</body></html>`

func TestFetchParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p := NewParser(2*time.Second, 0, zap.NewNop())
	site, err := p.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Tools | Built to last", site.Title)
	assert.Equal(t, "Acme", site.Name())
	assert.Equal(t, "Hand tools for people who build things.", site.Description)
	assert.Equal(t, "#ff6600", site.ThemeColor)
	assert.Equal(t, srv.URL+"/favicon.png", site.LogoURL)
	assert.Equal(t, []string{"Tools that never quit", "Hammers"}, site.Headings)
	require.Len(t, site.Paragraphs, 1)
	assert.Equal(t, "en", site.LangGuess)
	assert.Contains(t, site.Summary(), "Theme color: #ff6600")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p := NewParser(2*time.Second, 3, zap.NewNop())
	p.backoff = time.Millisecond
	_, err := p.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewParser(2*time.Second, 3, zap.NewNop())
	p.backoff = time.Millisecond
	_, err := p.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"acme.com", "https://acme.com", false},
		{"http://acme.com/about", "http://acme.com/about", false},
		{"  https://acme.com ", "https://acme.com", false},
		{"", "", true},
		{"ftp://acme.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSiteName(t *testing.T) {
	assert.Equal(t, "Acme", (&Site{Title: "Acme - Home"}).Name())
	assert.Equal(t, "Acme Inc", (&Site{Title: "Acme Inc"}).Name())
	assert.Equal(t, "Brand", (&Site{Title: "x", SiteName: "Brand"}).Name())
}

func TestGuessLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Привет мир, это тестовый текст на русском языке", "ru"},
		{"Hello world, this is a test text in English", "en"},
		{"", "unknown"},
		{"مرحبا بالعالم", "ar"},
		{"12345 !!!", "unknown"},
		{"Привет hello мир world тест test текст text", "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := guessLanguage(tt.input)
			if result != tt.expected {
				t.Errorf("guessLanguage(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
