package strategies

// GetStrategyArgs contains parameters for a random pick
type GetStrategyArgs struct {
	Edition string `json:"edition,omitempty" jsonschema:"Edition key (edition-1, edition-2, edition-3, edition-4, condensed, programmers, do-it). Defaults to edition-2; unknown keys use edition-2"`
}

// SearchStrategiesArgs contains parameters for a strategy search
type SearchStrategiesArgs struct {
	Query   string `json:"query" jsonschema:"Text to search for (case-insensitive substring). An empty query matches every strategy"`
	Edition string `json:"edition,omitempty" jsonschema:"Edition key to limit the search to. Omitted or unknown keys search all editions"`
}

// ListEditionsArgs takes no parameters
type ListEditionsArgs struct{}
