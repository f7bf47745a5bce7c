// Package classify decides whether a raw utterance asks for a tool to be
// built, and if so turns it into a structured build request. The heuristic is
// deterministic: the same utterance always yields the same classification.
package classify

import (
	"context"
	"strings"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/generator"
)

// Classification is the result contract consumed by the orchestrator.
type Classification struct {
	IsToolRequest      bool
	Request            *build.ToolBuildRequest
	AlternativeActions []string
}

// Classifier is the intake boundary. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (Classification, error)
}

// Heuristic is a keyword-driven Classifier with no external calls.
type Heuristic struct{}

// NewHeuristic returns the stock keyword classifier.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var buildVerbs = []string{
	"build", "create", "make me", "make a", "make an", "generate",
	"i need a", "i need an", "i want a", "i want an", "set up a",
}

var defaultAlternatives = []string{
	"describe a tool you want built",
	"list my tools",
	"show a recent build",
}

var categoryKeywords = []struct {
	category build.Category
	terms    []string
}{
	{build.CategoryDashboard, []string{"dashboard", "chart", "visualize", "visualization", "graph"}},
	{build.CategoryDataAnalyzer, []string{"analyze", "analyse", "analyzer", "csv", "spreadsheet", "statistics", "dataset"}},
	{build.CategoryTracker, []string{"track", "tracker", "habit", "expense", "log my", "journal", "diary"}},
	{build.CategoryConverter, []string{"convert", "converter", "transform", "format"}},
	{build.CategoryCalculator, []string{"calculat", "compute", "math"}},
	{build.CategoryScraper, []string{"scrape", "scraper", "crawl", "extract from"}},
	{build.CategoryAPITool, []string{"api", "endpoint", "webhook", "rest", "integration"}},
	{build.CategoryAutomation, []string{"automate", "automation", "schedule", "workflow", "pipeline"}},
}

var complexitySignals = []string{
	"database", "auth", "login", "real-time", "realtime", "multi-user",
	"integration", "pipeline", "machine learning",
}

var simplicitySignals = []string{"simple", "basic", "quick", "small", "tiny"}

var knownTechnologies = []string{
	"python", "flask", "django", "fastapi",
	"node", "express", "javascript", "typescript",
	"react", "vue", "chart.js", "sqlite", "postgres",
}

// Classify implements Classifier. It never returns an error; the error slot
// exists for implementations that call out of process.
func (h *Heuristic) Classify(_ context.Context, utterance string) (Classification, error) {
	lower := strings.ToLower(utterance)

	if !containsAny(lower, buildVerbs) {
		return Classification{
			IsToolRequest:      false,
			AlternativeActions: append([]string(nil), defaultAlternatives...),
		}, nil
	}

	category, matches := inferCategory(lower)
	complexity := inferComplexity(lower)
	technologies := detectTechnologies(lower)

	confidence := 0.5 + 0.1*float64(matches)
	if confidence > 0.9 {
		confidence = 0.9
	}

	req := &build.ToolBuildRequest{
		Name:              deriveName(category),
		Description:       strings.TrimSpace(utterance),
		Category:          category,
		Complexity:        complexity,
		Technologies:      technologies,
		Requirements:      extractRequirements(utterance),
		Confidence:        confidence,
		EstimatedDuration: generator.EstimatedDuration(complexity),
	}
	return Classification{IsToolRequest: true, Request: req}, nil
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// inferCategory returns the first category whose keywords appear, in a fixed
// priority order, plus the number of matched terms for the confidence score.
func inferCategory(lower string) (build.Category, int) {
	for _, entry := range categoryKeywords {
		matches := 0
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				matches++
			}
		}
		if matches > 0 {
			return entry.category, matches
		}
	}
	return build.CategoryGeneric, 0
}

func inferComplexity(lower string) build.Complexity {
	if containsAny(lower, complexitySignals) {
		return build.ComplexityComplex
	}
	if containsAny(lower, simplicitySignals) {
		return build.ComplexitySimple
	}
	return build.ComplexityMedium
}

func detectTechnologies(lower string) []string {
	var out []string
	for _, tech := range knownTechnologies {
		if strings.Contains(lower, tech) {
			out = append(out, tech)
		}
	}
	return out
}

// extractRequirements splits the utterance on coordinating phrases so each
// clause becomes one requirement line.
func extractRequirements(utterance string) []string {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return nil
	}
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '.'
	})
	var out []string
	for _, part := range parts {
		for _, clause := range strings.Split(part, " and ") {
			clause = strings.TrimSpace(clause)
			if clause != "" {
				out = append(out, clause)
			}
		}
	}
	return out
}

var categoryNames = map[build.Category]string{
	build.CategoryDataAnalyzer: "Data Analyzer",
	build.CategoryTracker:      "Tracker",
	build.CategoryConverter:    "Converter",
	build.CategoryCalculator:   "Calculator",
	build.CategoryDashboard:    "Dashboard",
	build.CategoryScraper:      "Scraper",
	build.CategoryAPITool:      "API Tool",
	build.CategoryAutomation:   "Automation",
	build.CategoryGeneric:      "Custom Tool",
}

func deriveName(category build.Category) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "Custom Tool"
}
