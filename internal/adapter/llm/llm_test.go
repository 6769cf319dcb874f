package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/blog-analyzer/internal/entity"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", MaxContentChars+500)
	assert.Len(t, Truncate(long), MaxContentChars)
	assert.Equal(t, "short", Truncate("short"))
}

func TestExtractJSONBlock(t *testing.T) {
	raw := "Sure! Here is the analysis you asked for:\n```json\n{\"category\": \"Tech\"}\n```\nLet me know if you need anything else."
	assert.Equal(t, `{"category": "Tech"}`, ExtractJSONBlock(raw))

	assert.Equal(t, "no braces here", ExtractJSONBlock("no braces here"))
	assert.Equal(t, "}{", ExtractJSONBlock("}{"))
}

func TestParseSummary(t *testing.T) {
	raw := `Here you go:
{
    "category": "Technology",
    "summary": "A post about queues.",
    "main_points": ["queues are useful", "queues can overflow"],
    "examples": ["Kafka at scale"]
}`
	record := ParseSummary(raw, "https://example.com/p", "Queues")

	assert.Equal(t, "https://example.com/p", record.URL)
	assert.Equal(t, "Queues", record.Title)
	assert.Equal(t, "Technology", record.Category)
	assert.Equal(t, "A post about queues.", record.Summary)
	assert.Equal(t, []string{"queues are useful", "queues can overflow"}, record.MainPoints)
	assert.Equal(t, []string{"Kafka at scale"}, record.Examples)
}

func TestParseSummaryMalformed(t *testing.T) {
	record := ParseSummary("I could not produce JSON, sorry.", "https://example.com/p", "Queues")

	assert.Equal(t, "Other", record.Category)
	assert.Equal(t, "Summary unavailable", record.Summary)
	assert.Equal(t, "Queues", record.Title)
}

func TestParseSummaryPartialPayload(t *testing.T) {
	record := ParseSummary(`{"summary": "Just a summary."}`, "https://example.com/p", "Queues")

	assert.Equal(t, "Other", record.Category)
	assert.Equal(t, "Just a summary.", record.Summary)
}

func TestParseInsights(t *testing.T) {
	record := entity.DefaultAnalysisRecord("https://example.com/p", "Queues")
	ParseInsights(`{
		"central_takeaways": ["measure first"],
		"contrarian_takeaways": ["benchmarks lie"],
		"unstated_assumptions": ["traffic is uniform"],
		"potential_experiments": ["shadow traffic"],
		"industry_applications": ["fintech"]
	}`, &record)

	assert.Equal(t, []string{"measure first"}, record.CentralTakeaways)
	assert.Equal(t, []string{"benchmarks lie"}, record.ContrarianTakeaways)
	assert.Equal(t, []string{"traffic is uniform"}, record.UnstatedAssumptions)
	assert.Equal(t, []string{"shadow traffic"}, record.PotentialExperiments)
	assert.Equal(t, []string{"fintech"}, record.IndustryApplications)
}

func TestParseInsightsMalformedLeavesDefaults(t *testing.T) {
	record := entity.DefaultAnalysisRecord("https://example.com/p", "Queues")
	before := record
	ParseInsights("not json at all", &record)
	assert.Equal(t, before, record)
}

func TestParseClusterLabel(t *testing.T) {
	meta := ParseClusterLabel(`{"label": "Queueing Theory", "summary": "Posts on queues.", "themes": ["latency"]}`, 0, 4)
	assert.Equal(t, "Queueing Theory", meta.Label)
	assert.Equal(t, "Posts on queues.", meta.Summary)
	assert.Equal(t, []string{"latency"}, meta.Themes)
	assert.Equal(t, 4, meta.PostCount)
}

func TestParseClusterLabelMalformed(t *testing.T) {
	meta := ParseClusterLabel("nope", 2, 3)
	assert.Equal(t, "Topic 3", meta.Label)
	assert.Equal(t, 3, meta.PostCount)
}

func TestSummaryPromptIncludesTruncatedContent(t *testing.T) {
	content := strings.Repeat("y", MaxContentChars+100)
	prompt := SummaryPrompt(content, "A Title")

	assert.Contains(t, prompt, "A Title")
	assert.NotContains(t, prompt, strings.Repeat("y", MaxContentChars+1))
}

func TestClusterLabelPromptCapsTitles(t *testing.T) {
	var posts []entity.AnalysisRecord
	for i := 0; i < 15; i++ {
		posts = append(posts, entity.AnalysisRecord{Title: "Post number " + string(rune('A'+i))})
	}
	prompt := ClusterLabelPrompt(posts)

	assert.Contains(t, prompt, "group of 15 blog posts")
	assert.Contains(t, prompt, "Post number J")
	assert.NotContains(t, prompt, "Post number K")
}
