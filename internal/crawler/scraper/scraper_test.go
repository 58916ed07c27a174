package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darkkaiser/price-tracker/internal/crawler/fetcher"
	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func newScraper() *Scraper {
	return New(fetcher.New(fetcher.Config{Timeout: 5 * time.Second, MinRetryDelay: time.Millisecond, MaxRetryDelay: time.Millisecond}))
}

func TestFetchHTMLDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1 class="title">Молоко 2,5%</h1></body></html>`))
	}))
	defer srv.Close()

	doc, err := newScraper().FetchHTMLDocument(context.Background(), srv.URL+"/catalog")
	require.NoError(t, err)
	assert.Equal(t, "Молоко 2,5%", doc.Find("h1.title").Text())
	assert.Equal(t, "/catalog", doc.Url.Path)
}

func TestFetchHTMLDocument_Windows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String(`<html><body><p>Хліб білий</p></body></html>`)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	doc, err := newScraper().FetchHTMLDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Хліб білий", doc.Find("p").Text())
}

func TestFetchHTMLDocument_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newScraper().FetchHTMLDocument(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))
}
