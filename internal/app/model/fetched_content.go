package model

// FetchedContent is what a content fetcher extracted from one page.
type FetchedContent struct {
	URL            string
	Title          string
	Content        string
	Text           string
	Language       string
	MimeType       string
	PreviewPicture string
	Metadata       map[string]string
}
