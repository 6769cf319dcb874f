package entity

// ScrapedPost is a fetched article with its extracted plain text.
type ScrapedPost struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AnalysisRecord holds the merged output of the analyzer calls for one post.
// Field names follow the analyzer's JSON response shape.
type AnalysisRecord struct {
	URL                  string   `json:"url"`
	Title                string   `json:"title"`
	Category             string   `json:"category"`
	Summary              string   `json:"summary"`
	MainPoints           []string `json:"main_points"`
	Examples             []string `json:"examples"`
	CentralTakeaways     []string `json:"central_takeaways"`
	ContrarianTakeaways  []string `json:"contrarian_takeaways"`
	UnstatedAssumptions  []string `json:"unstated_assumptions"`
	PotentialExperiments []string `json:"potential_experiments"`
	IndustryApplications []string `json:"industry_applications"`
}

// DefaultAnalysisRecord is the well-defined substitute used when the
// analyzer's response cannot be parsed. The batch continues with it
// instead of failing the whole run.
func DefaultAnalysisRecord(url, title string) AnalysisRecord {
	return AnalysisRecord{
		URL:                  url,
		Title:                title,
		Category:             "Other",
		Summary:              "Summary unavailable",
		MainPoints:           []string{},
		Examples:             []string{},
		CentralTakeaways:     []string{},
		ContrarianTakeaways:  []string{},
		UnstatedAssumptions:  []string{},
		PotentialExperiments: []string{},
		IndustryApplications: []string{},
	}
}
