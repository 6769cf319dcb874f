// Package render produces the knowledge-base markdown document from
// analyzed posts, grouped either by discovered topic cluster or by the
// analyzer's category.
package render

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/user/blog-analyzer/internal/entity"
)

// Document renders the full knowledge-base markdown. When clusters and
// metadata are present the cluster-grouped variant is used; otherwise
// posts are grouped by category.
func Document(sourceURL string, records []entity.AnalysisRecord, clusters *entity.ClusterResult, meta map[int]entity.ClusterMetadata, now time.Time) string {
	domain := domainOf(sourceURL)

	var b strings.Builder
	if clusters != nil && len(clusters.Clusters) > 0 {
		renderClustered(&b, domain, sourceURL, records, clusters, meta, now)
	} else {
		renderByCategory(&b, domain, sourceURL, records, now)
	}
	return b.String()
}

// Filename builds the storage key for a rendered document.
func Filename(sourceURL string, postCount int, now time.Time) string {
	domain := domainOf(sourceURL)
	blogName := strings.NewReplacer(".", "_", "-", "_").Replace(domain)
	return fmt.Sprintf("%s_%s_%dposts.md", now.Format("20060102_150405"), blogName, postCount)
}

func domainOf(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return "Unknown"
	}
	return parsed.Host
}

func renderHeader(b *strings.Builder, domain, sourceURL string, total int, now time.Time, clustered bool, groupCount int) {
	fmt.Fprintf(b, "# Knowledge Base: %s Blog Content\n\n", domain)
	b.WriteString("## Context\n")
	fmt.Fprintf(b, "This document contains curated summaries and insights from blog posts published on %s.\n", domain)
	if clustered {
		b.WriteString("Posts are automatically organized by topic using AI-powered semantic clustering.\n")
	}
	b.WriteString("\nUse this knowledge base to:\n")
	b.WriteString("- Understand key topics and trends discussed in their content\n")
	b.WriteString("- Reference specific examples and implementations\n")
	b.WriteString("- Generate ideas based on established patterns and approaches\n")
	b.WriteString("- Support brainstorming with real-world case studies\n\n")
	fmt.Fprintf(b, "**Source URL:** %s\n", sourceURL)
	fmt.Fprintf(b, "**Analysis Date:** %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(b, "**Total Articles:** %d\n", total)
	if clustered {
		fmt.Fprintf(b, "**Topic Clusters Discovered:** %d\n", groupCount)
	} else {
		fmt.Fprintf(b, "**Categories Covered:** %d\n", groupCount)
	}
	b.WriteString("\n---\n\n")
}

func renderClustered(b *strings.Builder, domain, sourceURL string, records []entity.AnalysisRecord, clusters *entity.ClusterResult, meta map[int]entity.ClusterMetadata, now time.Time) {
	ids := make([]int, 0, len(clusters.Clusters))
	for id := range clusters.Clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	renderHeader(b, domain, sourceURL, len(records), now, true, len(ids))

	b.WriteString("## Table of Contents\n\n")
	for _, id := range ids {
		label := clusterLabel(meta, id)
		anchor := anchorOf(label)
		fmt.Fprintf(b, "%d. [%s](#%s) (%d articles)\n", id+1, label, anchor, len(clusters.Clusters[id]))
	}
	b.WriteString("\n---\n\n")

	for _, id := range ids {
		posts := clusters.Clusters[id]
		label := clusterLabel(meta, id)

		fmt.Fprintf(b, "## %s\n\n", label)
		if m, ok := meta[id]; ok {
			fmt.Fprintf(b, "**Topic Overview:** %s\n", m.Summary)
			if len(m.Themes) > 0 {
				fmt.Fprintf(b, "\n**Key Themes:** %s\n", strings.Join(m.Themes, ", "))
			}
		}
		fmt.Fprintf(b, "\n*%d %s in this cluster*\n\n---\n\n", len(posts), pluralArticles(len(posts)))

		for i, post := range posts {
			renderPost(b, i+1, post, true)
		}
	}
}

func renderByCategory(b *strings.Builder, domain, sourceURL string, records []entity.AnalysisRecord, now time.Time) {
	categories := make(map[string][]entity.AnalysisRecord)
	for _, r := range records {
		cat := r.Category
		if cat == "" {
			cat = "Other"
		}
		categories[cat] = append(categories[cat], r)
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	renderHeader(b, domain, sourceURL, len(records), now, false, len(names))

	b.WriteString("## Table of Contents\n\n")
	for i, name := range names {
		fmt.Fprintf(b, "%d. [%s](#%s) (%d articles)\n", i+1, name, anchorOf(name), len(categories[name]))
	}
	b.WriteString("\n---\n\n")

	for _, name := range names {
		posts := categories[name]
		fmt.Fprintf(b, "## %s\n\n", name)
		fmt.Fprintf(b, "*%d %s in this category*\n\n", len(posts), pluralArticles(len(posts)))
		for i, post := range posts {
			renderPost(b, i+1, post, false)
		}
	}
}

func renderPost(b *strings.Builder, n int, post entity.AnalysisRecord, showCategory bool) {
	fmt.Fprintf(b, "### %d. %s\n\n", n, post.Title)
	fmt.Fprintf(b, "**Source:** [%s](%s)\n\n", post.Title, post.URL)
	if showCategory {
		fmt.Fprintf(b, "**Category:** %s\n\n", post.Category)
	}

	b.WriteString("#### Summary\n")
	b.WriteString(post.Summary)
	b.WriteString("\n\n")

	renderList(b, "#### Key Takeaways", post.MainPoints)
	renderList(b, "#### Real-World Examples", post.Examples)
	renderList(b, "#### Central Takeaways", post.CentralTakeaways)
	renderList(b, "#### Contrarian Insights", post.ContrarianTakeaways)
	renderList(b, "#### Unstated Assumptions", post.UnstatedAssumptions)
	renderList(b, "#### Potential Experiments", post.PotentialExperiments)
	renderList(b, "#### Industry Applications", post.IndustryApplications)
	b.WriteString("\n")
}

func renderList(b *strings.Builder, heading string, items []string) {
	var nonEmpty []string
	for _, item := range items {
		if item != "" {
			nonEmpty = append(nonEmpty, item)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteString("\n")
	for _, item := range nonEmpty {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func clusterLabel(meta map[int]entity.ClusterMetadata, id int) string {
	if m, ok := meta[id]; ok && m.Label != "" {
		return m.Label
	}
	return fmt.Sprintf("Topic %d", id+1)
}

func anchorOf(label string) string {
	anchor := strings.ToLower(label)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, "/", "")
	anchor = strings.ReplaceAll(anchor, "&", "")
	return anchor
}

func pluralArticles(n int) string {
	if n == 1 {
		return "article"
	}
	return "articles"
}
