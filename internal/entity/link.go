package entity

// CandidateLink is an anchor discovered on a listing or pagination page,
// not yet confirmed to be an article. URLs are absolute; the normalized
// absolute URL is the uniqueness key within one crawl.
type CandidateLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ScoredLink pairs a candidate with its relevance score.
type ScoredLink struct {
	CandidateLink
	Score int `json:"score"`
}
