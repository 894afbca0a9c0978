package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sifan077/PowerRead/internal/app/model"
	"go.uber.org/zap"
)

// DefaultFailureMarker is stored as the body of an entry whose content could not be fetched.
const DefaultFailureMarker = `<p>PowerRead could not retrieve the content of this article.</p>`

const wordsPerMinute = 200

// ErrEmptyContent is reported when a page was fetched but yielded no body.
var ErrEmptyContent = errors.New("fetched page has no content")

// FetchStatus tells how a refresh ended.
type FetchStatus int

const (
	FetchSucceeded FetchStatus = iota
	FetchDegraded
)

func (s FetchStatus) String() string {
	if s == FetchSucceeded {
		return "succeeded"
	}
	return "degraded"
}

// FetchOutcome is the result of a refresh. Err is set only when Status is FetchDegraded.
type FetchOutcome struct {
	Status FetchStatus
	Err    error
}

// ContentFetcher retrieves and parses a page.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*model.FetchedContent, error)
}

// ContentFetchService fills an entry from its URL. A failed fetch never
// surfaces as an error; the entry is degraded to the fallback title and the
// failure marker body instead.
type ContentFetchService interface {
	Refresh(ctx context.Context, entry *model.Entry, urlOverride string) FetchOutcome
	IsFailureMarker(content string) bool
}

// FetchOptions tunes a ContentFetchService.
type FetchOptions struct {
	Timeout       time.Duration
	FailureMarker string
	FallbackTitle string
}

type contentFetchService struct {
	fetcher  ContentFetcher
	opts     FetchOptions
	logger   *zap.Logger
	recorder Recorder
}

// NewContentFetchService wraps fetcher. Empty options fall back to the defaults.
func NewContentFetchService(fetcher ContentFetcher, opts FetchOptions, logger *zap.Logger, recorder Recorder) ContentFetchService {
	if opts.FailureMarker == "" {
		opts.FailureMarker = DefaultFailureMarker
	}
	if opts.FallbackTitle == "" {
		opts.FallbackTitle = model.DefaultEntryTitle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &contentFetchService{fetcher: fetcher, opts: opts, logger: logger, recorder: recorder}
}

func (s *contentFetchService) IsFailureMarker(content string) bool {
	return content == s.opts.FailureMarker
}

func (s *contentFetchService) Refresh(ctx context.Context, entry *model.Entry, urlOverride string) FetchOutcome {
	if urlOverride != "" {
		entry.URL = urlOverride
	}
	entry.Title = s.opts.FallbackTitle
	entry.DomainName = domainOf(entry.URL)

	fetchCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	content, err := s.fetcher.Fetch(fetchCtx, entry.URL)
	if err == nil && strings.TrimSpace(content.Content) == "" {
		err = ErrEmptyContent
	}
	if err != nil {
		entry.Content = s.opts.FailureMarker
		entry.ReadingTime = 0
		s.logger.Warn("fetch content failed",
			zap.Uint("entry_id", entry.ID),
			zap.Uint("user_id", entry.UserID),
			zap.String("url", entry.URL),
			zap.Error(err),
		)
		s.recorder.FetchCompleted(FetchDegraded.String())
		return FetchOutcome{Status: FetchDegraded, Err: err}
	}

	if title := strings.TrimSpace(content.Title); title != "" {
		entry.Title = title
	}
	entry.Content = content.Content
	entry.Language = content.Language
	entry.MimeType = content.MimeType
	entry.PreviewPicture = content.PreviewPicture
	entry.ReadingTime = readingTime(content)
	entry.Metadata = nil
	if len(content.Metadata) > 0 {
		meta := make(map[string]interface{}, len(content.Metadata))
		for k, v := range content.Metadata {
			meta[k] = v
		}
		entry.Metadata = meta
	}

	s.recorder.FetchCompleted(FetchSucceeded.String())
	return FetchOutcome{Status: FetchSucceeded}
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// readingTime is minutes at 200 words per minute, rounded down.
func readingTime(content *model.FetchedContent) int {
	text := content.Text
	if text == "" {
		text = plainText(content.Content)
	}
	return len(strings.Fields(text)) / wordsPerMinute
}

// plainText returns the visible text of an HTML fragment; script and style
// bodies are not counted.
func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style,noscript").Remove()
	return doc.Text()
}
