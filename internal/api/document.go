package api

// DocumentPage holds the extracted text of a single source page.
type DocumentPage struct {
	Index int
	Text  string
}

// DocumentContent is the parsed content of one source document.
type DocumentContent struct {
	Title string
	Pages []DocumentPage
}

func (dc DocumentContent) Text() string {
	text := ""
	for _, page := range dc.Pages {
		text += page.Text
	}
	return text
}

type ScoredDocument struct {
	// Required
	Content string
	Score   float64

	// Optional
	Title string
	Url   string
}
