package domain

// Evidence is the text corpus gathered for one ticker.
type Evidence struct {
	Ticker      string
	CompanyName string   // from the company profile, may be empty
	Sector      string   // profile industry, may be empty
	Description string   // company profile text blob
	Headlines   []string // recent news headlines, newest first
}

// Empty reports whether no usable text was gathered.
func (e *Evidence) Empty() bool {
	return e.Description == "" && len(e.Headlines) == 0
}
