package generator

import (
	"fmt"

	"github.com/forgeloop/toolwright/pkg/build"
)

// categorySpec bundles everything category-specific the generator needs: the
// embedded front-end execution logic, supplementary style rules, inferred
// runtime dependencies, and the manifest's API surface summary.
type categorySpec struct {
	logic        string
	styles       string
	dependencies []string
	apiSummary   string
	inputHint    string
}

// categorySpecs is the fixed dispatch table keyed by tool category. New
// validates that it covers every member of build.AllCategories so a new
// category cannot silently fall through to nothing.
var categorySpecs = map[build.Category]categorySpec{
	build.CategoryDataAnalyzer: {
		inputHint:  "Paste CSV data",
		apiSummary: "runTool(csv) -> {rows, columns, headers, preview}",
		dependencies: []string{
			"papaparse",
			"simple-statistics",
		},
		logic: `function runTool(input) {
  const lines = input.split(/\r?\n/).filter((l) => l.trim() !== "");
  if (lines.length === 0) return { error: "no data" };
  const headers = lines[0].split(",").map((h) => h.trim());
  const rows = lines.slice(1).map((l) => l.split(","));
  return {
    rows: rows.length,
    columns: headers.length,
    headers: headers,
    preview: rows.slice(0, 5),
  };
}`,
		styles: `.result-table { border-collapse: collapse; width: 100%; }
.result-table td, .result-table th { border: 1px solid var(--border); padding: 0.4rem; }`,
	},
	build.CategoryTracker: {
		inputHint:  "Describe the entry to record",
		apiSummary: "runTool(entry) -> {count, latest}",
		dependencies: []string{
			"localforage",
		},
		logic: `function runTool(input) {
  const key = "tracker-entries";
  const entries = JSON.parse(localStorage.getItem(key) || "[]");
  entries.push({ text: input, at: new Date().toISOString() });
  localStorage.setItem(key, JSON.stringify(entries));
  return { count: entries.length, latest: entries[entries.length - 1] };
}`,
		styles: `.entry-list li { padding: 0.3rem 0; border-bottom: 1px dashed var(--border); }`,
	},
	build.CategoryConverter: {
		inputHint:  "Paste JSON to convert to CSV",
		apiSummary: "runTool(json) -> csv string",
		dependencies: []string{
			"papaparse",
		},
		logic: `function runTool(input) {
  const data = JSON.parse(input);
  const items = Array.isArray(data) ? data : [data];
  const headers = Object.keys(items[0] || {});
  const lines = [headers.join(",")];
  for (const item of items) {
    lines.push(headers.map((h) => JSON.stringify(item[h] ?? "")).join(","));
  }
  return lines.join("\n");
}`,
		styles: `.output-pane { font-family: monospace; white-space: pre; }`,
	},
	build.CategoryCalculator: {
		inputHint:  "Enter an arithmetic expression, e.g. 2 + 2",
		apiSummary: "runTool(expression) -> number",
		dependencies: []string{
			"decimal.js",
		},
		// Mirrors the Go-side EvalArithmetic contract: only digits,
		// operators, parentheses and whitespace ever reach evaluation.
		logic: `function runTool(input) {
  if (!/^[0-9+\-*/(). \t]+$/.test(input)) {
    throw new Error("only arithmetic expressions are allowed");
  }
  const result = Function('"use strict"; return (' + input + ')')();
  if (typeof result !== "number" || !isFinite(result)) {
    throw new Error("expression did not evaluate to a number");
  }
  return result;
}`,
		styles: `.display { font-size: 2rem; text-align: right; }`,
	},
	build.CategoryDashboard: {
		inputHint:  "Paste CSV metrics data",
		apiSummary: "runTool(csv) -> {series, totals}",
		dependencies: []string{
			"chart.js",
			"papaparse",
		},
		logic: `function runTool(input) {
  const lines = input.split(/\r?\n/).filter((l) => l.trim() !== "");
  const headers = (lines[0] || "").split(",").map((h) => h.trim());
  const series = lines.slice(1).map((l) => l.split(",").map(Number));
  const totals = headers.map((_, i) =>
    series.reduce((sum, row) => sum + (row[i] || 0), 0));
  return { series: series.length, totals: totals };
}`,
		styles: `.panel-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; }`,
	},
	build.CategoryScraper: {
		inputHint:  "Paste HTML to extract links from",
		apiSummary: "runTool(html) -> {links}",
		dependencies: []string{
			"cheerio",
		},
		logic: `function runTool(input) {
  const doc = new DOMParser().parseFromString(input, "text/html");
  const links = Array.from(doc.querySelectorAll("a[href]")).map((a) => a.getAttribute("href"));
  return { links: links };
}`,
		styles: `.link-list { word-break: break-all; }`,
	},
	build.CategoryAPITool: {
		inputHint:  "Enter an API endpoint URL",
		apiSummary: "runTool(url) -> Promise<{status, body}>",
		dependencies: []string{
			"axios",
		},
		logic: `async function runTool(input) {
  const response = await fetch(input, { headers: { Accept: "application/json" } });
  const body = await response.text();
  return { status: response.status, body: body.slice(0, 2000) };
}`,
		styles: `.status-ok { color: var(--accent); } .status-err { color: #c0392b; }`,
	},
	build.CategoryAutomation: {
		inputHint:  "List steps, one per line",
		apiSummary: "runTool(steps) -> {executed, log}",
		dependencies: []string{
			"p-queue",
		},
		logic: `function runTool(input) {
  const steps = input.split(/\r?\n/).filter((s) => s.trim() !== "");
  const log = steps.map((s, i) => "step " + (i + 1) + ": " + s.trim() + " [queued]");
  return { executed: steps.length, log: log };
}`,
		styles: `.step-log { font-family: monospace; }`,
	},
	build.CategoryGeneric: {
		inputHint:  "Enter input",
		apiSummary: "runTool(input) -> {input, length}",
		dependencies: []string{},
		logic: `function runTool(input) {
  return { input: input, length: input.length };
}`,
		styles: ``,
	},
}

// validateDispatchTables fails construction when a category lacks a spec.
func validateDispatchTables() error {
	for _, category := range build.AllCategories {
		spec, ok := categorySpecs[category]
		if !ok {
			return fmt.Errorf("generator dispatch table missing category %q", category)
		}
		if spec.logic == "" {
			return fmt.Errorf("generator dispatch table has empty logic for %q", category)
		}
	}
	return nil
}
