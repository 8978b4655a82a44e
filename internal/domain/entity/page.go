package entity

// PageContent is a loaded web page before any text extraction.
type PageContent struct {
	URL         string
	Title       string
	HTML        string
	Status      int
	ContentType string
}
