package models

// FetchResult is the output of a successful article fetch: the HTML
// fragment believed to contain the article body, plus the resolved title.
// Nothing here is persisted; the struct lives for a single run.
type FetchResult struct {
	// HTML is the located article sub-tree (or the whole document when no
	// better match was found).
	HTML string

	// Title is the resolved article title, "Untitled Article" when no
	// candidate matched.
	Title string

	// StatusCode is the HTTP status of the winning request, when the
	// strategy went over HTTP at all (0 for feed/external-process wins).
	StatusCode int

	// Strategy names the retrieval strategy that produced this result.
	Strategy string
}

// ImageRef pairs a resolved absolute image URL with the unique local
// filename assigned to it. Uniqueness is enforced by the extractor against
// both the current run and pre-existing files in the media directory.
type ImageRef struct {
	SourceURL string
	LocalName string
}
