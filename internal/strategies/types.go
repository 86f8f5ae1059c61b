package strategies

// RandomResult is the outcome of a random pick. On failure only Error and
// Edition are set.
type RandomResult struct {
	Strategy       string `json:"strategy,omitempty"`
	Edition        string `json:"edition"`
	TotalInEdition int    `json:"totalInEdition,omitempty"`
	Error          string `json:"error,omitempty"`
}

// OK reports whether the pick succeeded.
func (r RandomResult) OK() bool {
	return r.Error == ""
}

// Match is a single search hit.
type Match struct {
	Strategy string `json:"strategy"`
	Edition  string `json:"edition"`
}

// SearchResult is the outcome of a substring search.
type SearchResult struct {
	Query            string   `json:"query"`
	Matches          []Match  `json:"matches"`
	Count            int      `json:"count"`
	SearchedEditions []string `json:"searchedEditions"`
}

// EditionInfo describes one edition in a listing.
type EditionInfo struct {
	Key           string `json:"key"`
	Filename      string `json:"filename"`
	StrategyCount int    `json:"strategyCount"`
	IsDefault     bool   `json:"isDefault"`
}

// ListResult is the edition listing.
type ListResult struct {
	Editions       []EditionInfo `json:"editions"`
	DefaultEdition string        `json:"defaultEdition"`
}
