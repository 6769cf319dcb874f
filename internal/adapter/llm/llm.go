// Package llm holds the prompts and response parsing shared by the
// analyzer providers. Providers differ only in transport; the record
// shapes and the tolerant JSON extraction live here.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/blog-analyzer/internal/entity"
)

// MaxContentChars bounds how much article text is sent per analysis call.
const MaxContentChars = 4000

// Truncate clips content to MaxContentChars.
func Truncate(content string) string {
	if len(content) > MaxContentChars {
		return content[:MaxContentChars]
	}
	return content
}

// ExtractJSONBlock pulls the substring between the first '{' and the last
// '}' so a JSON object embedded in a larger free-text reply still parses.
func ExtractJSONBlock(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// SummaryPrompt asks for category, summary, main points and examples.
func SummaryPrompt(content, title string) string {
	return fmt.Sprintf(`Analyze this blog post and provide:
1. A primary category (choose ONE most relevant: Technology, Business, Marketing, Design, Development, Product, Data Science, AI/ML, DevOps, Security, Other)
2. A concise summary (2-3 sentences)
3. Main points (3-5 key takeaways as bullet points)
4. Specific examples mentioned in the post (if any, 2-3 examples)

Blog Title: %s
Blog Content:
%s

Respond in JSON format:
{
    "category": "category name",
    "summary": "summary text",
    "main_points": ["point 1", "point 2", "point 3"],
    "examples": ["example 1", "example 2"]
}`, title, Truncate(content))
}

// InsightsPrompt asks for the deeper strategic reading of the post.
func InsightsPrompt(content, title string) string {
	return fmt.Sprintf(`Read this blog post closely and extract strategic insights:
1. Central takeaways the author most wants the reader to retain (2-3)
2. Contrarian or against-the-grain claims, if any (1-3)
3. Assumptions the argument relies on but never states (1-3)
4. Experiments a team could run to test the post's claims (1-3)
5. Industries or functions where the ideas apply (1-3)

Blog Title: %s
Blog Content:
%s

Respond in JSON format:
{
    "central_takeaways": ["..."],
    "contrarian_takeaways": ["..."],
    "unstated_assumptions": ["..."],
    "potential_experiments": ["..."],
    "industry_applications": ["..."]
}`, title, Truncate(content))
}

// ClusterLabelPrompt asks for a topic label over a group of related posts.
func ClusterLabelPrompt(posts []entity.AnalysisRecord) string {
	var titles, summaries []string
	for i, p := range posts {
		if i >= 10 {
			break
		}
		titles = append(titles, "- "+p.Title)
		if p.Summary != "" && len(summaries) < 5 {
			s := p.Summary
			if len(s) > 200 {
				s = s[:200]
			}
			summaries = append(summaries, "- "+s)
		}
	}

	prompt := fmt.Sprintf(`Analyze this group of %d blog posts and generate:
1. A concise, descriptive topic label (2-5 words)
2. A brief summary of what this topic cluster is about (1-2 sentences)
3. Key themes present across these posts

Blog post titles in this cluster:
%s
`, len(posts), strings.Join(titles, "\n"))

	if len(summaries) > 0 {
		prompt += "\nPost summaries:\n" + strings.Join(summaries, "\n") + "\n"
	}

	prompt += `
Respond in JSON format:
{
    "label": "topic label",
    "summary": "cluster summary",
    "themes": ["theme 1", "theme 2", "theme 3"]
}`
	return prompt
}

type summaryPayload struct {
	Category   string   `json:"category"`
	Summary    string   `json:"summary"`
	MainPoints []string `json:"main_points"`
	Examples   []string `json:"examples"`
}

type insightsPayload struct {
	CentralTakeaways     []string `json:"central_takeaways"`
	ContrarianTakeaways  []string `json:"contrarian_takeaways"`
	UnstatedAssumptions  []string `json:"unstated_assumptions"`
	PotentialExperiments []string `json:"potential_experiments"`
	IndustryApplications []string `json:"industry_applications"`
}

// ParseSummary decodes the categorize/summarize response into a record.
// A malformed response yields the default record rather than an error.
func ParseSummary(raw, url, title string) entity.AnalysisRecord {
	record := entity.DefaultAnalysisRecord(url, title)

	var payload summaryPayload
	if err := json.Unmarshal([]byte(ExtractJSONBlock(raw)), &payload); err != nil {
		return record
	}
	if payload.Category != "" {
		record.Category = payload.Category
	}
	if payload.Summary != "" {
		record.Summary = payload.Summary
	}
	if payload.MainPoints != nil {
		record.MainPoints = payload.MainPoints
	}
	if payload.Examples != nil {
		record.Examples = payload.Examples
	}
	return record
}

// ParseInsights merges the deep-insight response into record. Malformed
// responses leave the record's insight fields at their defaults.
func ParseInsights(raw string, record *entity.AnalysisRecord) {
	var payload insightsPayload
	if err := json.Unmarshal([]byte(ExtractJSONBlock(raw)), &payload); err != nil {
		return
	}
	if payload.CentralTakeaways != nil {
		record.CentralTakeaways = payload.CentralTakeaways
	}
	if payload.ContrarianTakeaways != nil {
		record.ContrarianTakeaways = payload.ContrarianTakeaways
	}
	if payload.UnstatedAssumptions != nil {
		record.UnstatedAssumptions = payload.UnstatedAssumptions
	}
	if payload.PotentialExperiments != nil {
		record.PotentialExperiments = payload.PotentialExperiments
	}
	if payload.IndustryApplications != nil {
		record.IndustryApplications = payload.IndustryApplications
	}
}

// ParseClusterLabel decodes a cluster-label response, falling back to a
// generic numbered topic on malformed output.
func ParseClusterLabel(raw string, clusterID, postCount int) entity.ClusterMetadata {
	meta := entity.ClusterMetadata{
		Label:     fmt.Sprintf("Topic %d", clusterID+1),
		Summary:   fmt.Sprintf("A cluster of %d related posts", postCount),
		Themes:    []string{},
		PostCount: postCount,
	}

	var payload entity.ClusterMetadata
	if err := json.Unmarshal([]byte(ExtractJSONBlock(raw)), &payload); err != nil {
		return meta
	}
	if payload.Label != "" {
		meta.Label = payload.Label
	}
	if payload.Summary != "" {
		meta.Summary = payload.Summary
	}
	if payload.Themes != nil {
		meta.Themes = payload.Themes
	}
	return meta
}
