package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentFetchService_Success(t *testing.T) {
	rec := &mockRecorder{}
	body := "<article><p>" + strings.Repeat("word ", 450) + "</p></article>"
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context, url string) (*model.FetchedContent, error) {
		return &model.FetchedContent{
			Title:          "  A title ",
			Content:        body,
			Language:       "fr",
			MimeType:       "text/html",
			PreviewPicture: "https://img.example.com/a.png",
			Metadata:       map[string]string{"description": "d"},
		}, nil
	}}
	svc := NewContentFetchService(fetcher, FetchOptions{}, nil, rec)

	entry := model.NewEntry(1, "https://www.example.com/a?b=c")
	outcome := svc.Refresh(context.Background(), entry, "")

	assert.Equal(t, FetchSucceeded, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, "A title", entry.Title)
	assert.Equal(t, body, entry.Content)
	assert.Equal(t, "www.example.com", entry.DomainName)
	assert.Equal(t, "fr", entry.Language)
	assert.Equal(t, 2, entry.ReadingTime)
	assert.Equal(t, "d", entry.Metadata["description"])
	assert.False(t, svc.IsFailureMarker(entry.Content))
	assert.Equal(t, []string{"succeeded"}, rec.outcomes)
}

func TestContentFetchService_EmptyTitleFallsBack(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context, url string) (*model.FetchedContent, error) {
		return &model.FetchedContent{Content: "<p>x</p>"}, nil
	}}
	svc := NewContentFetchService(fetcher, FetchOptions{}, nil, nil)

	entry := model.NewEntry(1, "https://example.com")
	entry.Title = "stale"
	outcome := svc.Refresh(context.Background(), entry, "")

	assert.Equal(t, FetchSucceeded, outcome.Status)
	assert.Equal(t, model.DefaultEntryTitle, entry.Title)
}

func TestContentFetchService_Degrades(t *testing.T) {
	cases := map[string]func(ctx context.Context, url string) (*model.FetchedContent, error){
		"error": func(ctx context.Context, url string) (*model.FetchedContent, error) {
			return nil, errors.New("boom")
		},
		"empty body": func(ctx context.Context, url string) (*model.FetchedContent, error) {
			return &model.FetchedContent{Title: "Has title", Content: "  \n "}, nil
		},
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &mockRecorder{}
			svc := NewContentFetchService(&mockFetcher{fetchFn: fn}, FetchOptions{}, nil, rec)

			entry := model.NewEntry(1, "https://example.com/x")
			entry.Title = "previous"
			entry.Content = "previous"
			outcome := svc.Refresh(context.Background(), entry, "")

			assert.Equal(t, FetchDegraded, outcome.Status)
			assert.Error(t, outcome.Err)
			assert.Equal(t, model.DefaultEntryTitle, entry.Title)
			assert.Equal(t, DefaultFailureMarker, entry.Content)
			assert.True(t, svc.IsFailureMarker(entry.Content))
			assert.Equal(t, "example.com", entry.DomainName)
			assert.Equal(t, []string{"degraded"}, rec.outcomes)
		})
	}
}

func TestContentFetchService_AppliesTimeoutAndOverride(t *testing.T) {
	var fetchedURL string
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context, url string) (*model.FetchedContent, error) {
		fetchedURL = url
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := NewContentFetchService(fetcher, FetchOptions{Timeout: 20 * time.Millisecond, FailureMarker: "x"}, nil, nil)

	entry := model.NewEntry(1, "https://example.com/old")
	outcome := svc.Refresh(context.Background(), entry, "https://example.org/new")

	assert.Equal(t, "https://example.org/new", fetchedURL)
	assert.Equal(t, "https://example.org/new", entry.URL)
	assert.Equal(t, FetchDegraded, outcome.Status)
	assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	assert.Equal(t, "x", entry.Content)
}

func TestReadingTimeStripsMarkup(t *testing.T) {
	content := &model.FetchedContent{Content: "<div>" + strings.Repeat("<b>w</b> ", 399) + "</div>"}
	assert.Equal(t, 1, readingTime(content))

	content.Text = "just a few words"
	assert.Equal(t, 0, readingTime(content))
}

func TestPlainTextKeepsLiteralsAndDropsScripts(t *testing.T) {
	html := "<p>if a < b then</p><script>" + strings.Repeat("tracking ", 400) + "</script><style>p{}</style>"

	text := plainText(html)
	assert.Contains(t, text, "a < b then")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "p{}")
	assert.Equal(t, 0, readingTime(&model.FetchedContent{Content: html}))
}

func TestContentFetchService_SuccessReplacesMetadata(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context, url string) (*model.FetchedContent, error) {
		return &model.FetchedContent{Title: "v2", Content: "<p>two</p>"}, nil
	}}
	svc := NewContentFetchService(fetcher, FetchOptions{FailureMarker: testMarker}, nil, nil)

	entry := model.NewEntry(1, "https://example.com/a")
	entry.Metadata = map[string]interface{}{"description": "old desc"}

	outcome := svc.Refresh(context.Background(), entry, "")
	require.Equal(t, FetchSucceeded, outcome.Status)
	assert.Empty(t, entry.Metadata)
}
