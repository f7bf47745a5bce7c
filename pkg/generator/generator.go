package generator

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/build"
)

// Generator turns a classified build request into a complete tool repository.
// It is deterministic: the same request and clock always produce the same
// artifact.
type Generator struct {
	author string
	log    *zap.Logger
}

// New constructs a Generator and verifies the category dispatch table covers
// every known category.
func New(author string, log *zap.Logger) (*Generator, error) {
	if err := validateDispatchTables(); err != nil {
		return nil, err
	}
	if author == "" {
		author = "toolwright"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{author: author, log: log}, nil
}

// Generate builds the artifact for a request. It never touches disk; the
// returned repository holds every file as in-memory text.
func (g *Generator) Generate(req build.ToolBuildRequest, now time.Time) (*build.ToolRepository, error) {
	category := req.Category.Normalize()
	complexity := req.Complexity.Normalize()
	spec := categorySpecs[category]

	name := req.Name
	if name == "" {
		name = string(category) + "-tool"
	}

	backends := detectBackends(req.Technologies)
	deployment := inferDeployment(complexity, backends)

	meta := build.ToolMetadata{
		Version:          "1.0.0",
		Author:           g.author,
		CreatedAt:        now,
		UpdatedAt:        now,
		Tags:             buildTags(category, complexity, req.Technologies),
		Category:         category,
		Complexity:       complexity,
		EstimatedRuntime: deployment.Runtime,
		Dependencies:     append([]string(nil), spec.dependencies...),
		Permissions:      inferPermissions(req),
	}

	repo := &build.ToolRepository{
		ID:          fmt.Sprintf("%s-%d", category, now.Unix()),
		Name:        name,
		Description: req.Description,
		Category:    category,
		Files:       build.ToolFileStructure{},
		Metadata:    meta,
		Deployment:  deployment,
	}

	manifest, err := renderManifest(repo, spec)
	if err != nil {
		return nil, fmt.Errorf("generate manifest: %w", err)
	}
	repo.Files["manifest.json"] = manifest
	repo.Files["index.html"] = renderIndexHTML(name, req.Description, spec)
	repo.Files["styles.css"] = renderStyles(spec)
	repo.Files["README.md"] = renderReadme(repo, req, spec)
	repo.Files["package.json"] = renderPackageJSON(name, spec)
	repo.Files["config.json"] = renderConfigJSON(repo, req)
	repo.Files["deploy.yml"] = renderDeployYAML(repo)

	for _, backend := range backends {
		addBackendFiles(repo.Files, name, backend)
	}

	g.log.Debug("generated repository",
		zap.String("id", repo.ID),
		zap.String("category", string(category)),
		zap.Int("files", len(repo.Files)))
	return repo, nil
}

// backendStack identifies one server-side family a tool may carry.
type backendStack struct {
	family  string
	runtime string
}

// backendFamilies is ordered; the first matched family is primary and drives
// the deployment runtime and commands.
var backendFamilies = []struct {
	stack backendStack
	terms []string
}{
	{backendStack{family: "python", runtime: "python3.11"}, []string{"python", "flask", "django", "fastapi"}},
	{backendStack{family: "node", runtime: "node20"}, []string{"node", "nodejs", "node.js", "express", "koa"}},
}

// detectBackends returns every backend family named by the requested
// technologies, at most one stack per family, in canonical order.
func detectBackends(technologies []string) []backendStack {
	var stacks []backendStack
	for _, family := range backendFamilies {
		if matchesFamily(family.terms, technologies) {
			stacks = append(stacks, family.stack)
		}
	}
	return stacks
}

func matchesFamily(terms, technologies []string) bool {
	for _, tech := range technologies {
		lower := strings.ToLower(strings.TrimSpace(tech))
		for _, term := range terms {
			if lower == term {
				return true
			}
		}
	}
	return false
}

func inferDeployment(complexity build.Complexity, backends []backendStack) build.DeploymentConfig {
	cfg := build.DeploymentConfig{
		Kind:        build.DeployStatic,
		Runtime:     "static",
		Environment: map[string]string{},
		HealthCheck: "/",
		Scaling:     build.ScalingBounds{Min: 1, Target: 2, Max: 3},
	}
	switch {
	case len(backends) > 0:
		primary := backends[0]
		cfg.Kind = build.DeployContainer
		cfg.Runtime = primary.runtime
		if primary.family == "python" {
			cfg.BuildCommand = "pip install -r requirements.txt"
			cfg.StartCommand = "python main.py"
		} else {
			cfg.BuildCommand = "npm install"
			cfg.StartCommand = "node server.js"
		}
		cfg.HealthCheck = "/health"
	case complexity == build.ComplexityComplex:
		cfg.Kind = build.DeployServerless
		cfg.Runtime = "node20"
	}
	if complexity == build.ComplexityComplex {
		cfg.Scaling.Max = 10
	}
	return cfg
}

var storageTerms = []string{"save", "store", "persist", "track", "record", "history", "log"}

var networkTerms = []string{"api", "fetch", "http", "endpoint", "webhook", "scrape", "url", "request"}

// inferPermissions scans the description and requirements for capability
// hints. The result is sorted so identical requests yield identical metadata.
func inferPermissions(req build.ToolBuildRequest) []string {
	haystack := strings.ToLower(req.Description + " " + strings.Join(req.Requirements, " "))
	found := map[string]bool{}
	for _, term := range storageTerms {
		if strings.Contains(haystack, term) {
			found["storage-write"] = true
			break
		}
	}
	for _, term := range networkTerms {
		if strings.Contains(haystack, term) {
			found["network"] = true
			break
		}
	}
	if req.Category.Normalize() == build.CategoryTracker {
		found["storage-write"] = true
	}
	if req.Category.Normalize() == build.CategoryAPITool || req.Category.Normalize() == build.CategoryScraper {
		found["network"] = true
	}
	out := make([]string, 0, len(found))
	for perm := range found {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

func buildTags(category build.Category, complexity build.Complexity, technologies []string) []string {
	tags := []string{string(category), string(complexity)}
	seen := map[string]bool{string(category): true, string(complexity): true}
	for _, tech := range technologies {
		lower := strings.ToLower(strings.TrimSpace(tech))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		tags = append(tags, lower)
	}
	return tags
}

// EstimatedDuration returns the advertised build duration for a complexity
// tier. The classifier and enricher both use it so the transcript and the
// manifest never disagree.
func EstimatedDuration(complexity build.Complexity) string {
	switch complexity.Normalize() {
	case build.ComplexitySimple:
		return "5 minutes"
	case build.ComplexityComplex:
		return "45 minutes"
	}
	return "15 minutes"
}

type manifestDoc struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    build.Category     `json:"category"`
	Version     string             `json:"version"`
	Author      string             `json:"author"`
	API         string             `json:"api"`
	Entrypoint  string             `json:"entrypoint"`
	Files       []string           `json:"files"`
	Metadata    build.ToolMetadata `json:"metadata"`
}

func renderManifest(repo *build.ToolRepository, spec categorySpec) (string, error) {
	doc := manifestDoc{
		ID:          repo.ID,
		Name:        repo.Name,
		Description: repo.Description,
		Category:    repo.Category,
		Version:     repo.Metadata.Version,
		Author:      repo.Metadata.Author,
		API:         spec.apiSummary,
		Entrypoint:  "index.html",
		Metadata:    repo.Metadata,
	}
	// The manifest lists the canonical file set, not itself.
	doc.Files = []string{"index.html", "styles.css", "README.md", "package.json", "config.json", "deploy.yml"}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw) + "\n", nil
}

func renderIndexHTML(name, description string, spec categorySpec) string {
	// Name and description come from user text and must not break the markup.
	name = html.EscapeString(name)
	description = html.EscapeString(description)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"utf-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", name)
	b.WriteString("  <link rel=\"stylesheet\" href=\"styles.css\">\n</head>\n<body>\n")
	fmt.Fprintf(&b, "  <main class=\"tool\">\n    <h1>%s</h1>\n", name)
	fmt.Fprintf(&b, "    <p class=\"description\">%s</p>\n", description)
	fmt.Fprintf(&b, "    <textarea id=\"tool-input\" placeholder=\"%s\"></textarea>\n", spec.inputHint)
	b.WriteString("    <button id=\"tool-run\">Run</button>\n")
	b.WriteString("    <pre id=\"tool-output\"></pre>\n  </main>\n")
	b.WriteString("  <script>\n")
	b.WriteString(spec.logic)
	b.WriteString("\n\ndocument.getElementById(\"tool-run\").addEventListener(\"click\", async () => {\n")
	b.WriteString("  const input = document.getElementById(\"tool-input\").value;\n")
	b.WriteString("  const output = document.getElementById(\"tool-output\");\n")
	b.WriteString("  try {\n")
	b.WriteString("    const result = await runTool(input);\n")
	b.WriteString("    output.textContent = typeof result === \"string\" ? result : JSON.stringify(result, null, 2);\n")
	b.WriteString("  } catch (err) {\n")
	b.WriteString("    output.textContent = \"error: \" + err.message;\n")
	b.WriteString("  }\n});\n")
	b.WriteString("  </script>\n</body>\n</html>\n")
	return b.String()
}

const baseStyles = `:root {
  --border: #d0d4da;
  --accent: #2d7dd2;
}

body {
  font-family: system-ui, sans-serif;
  margin: 0 auto;
  max-width: 720px;
  padding: 2rem 1rem;
}

.tool textarea {
  width: 100%;
  min-height: 8rem;
  border: 1px solid var(--border);
  padding: 0.5rem;
  font-family: inherit;
}

.tool button {
  margin-top: 0.5rem;
  padding: 0.5rem 1.5rem;
  background: var(--accent);
  color: #fff;
  border: none;
  cursor: pointer;
}

#tool-output {
  margin-top: 1rem;
  padding: 0.75rem;
  background: #f6f7f9;
  border: 1px solid var(--border);
  white-space: pre-wrap;
}
`

func renderStyles(spec categorySpec) string {
	if spec.styles == "" {
		return baseStyles
	}
	return baseStyles + "\n" + spec.styles + "\n"
}

func renderReadme(repo *build.ToolRepository, req build.ToolBuildRequest, spec categorySpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", repo.Name, repo.Description)
	fmt.Fprintf(&b, "- Category: %s\n- Complexity: %s\n", repo.Category, repo.Metadata.Complexity)
	fmt.Fprintf(&b, "- Version: %s\n- Author: %s\n\n", repo.Metadata.Version, repo.Metadata.Author)
	b.WriteString("## API\n\n```\n" + spec.apiSummary + "\n```\n\n")
	if len(req.Requirements) > 0 {
		b.WriteString("## Requirements\n\n")
		for _, r := range req.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	if repo.Category == build.CategoryCalculator {
		b.WriteString("## Examples\n\n")
		for _, expr := range []string{"2 + 2", "10 * (3 - 1)", "7 / 2"} {
			result, err := EvalArithmetic(expr)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "- `%s` = %g\n", expr, result)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "## Deployment\n\nKind: %s, runtime: %s.\n", repo.Deployment.Kind, repo.Deployment.Runtime)
	return b.String()
}

func renderPackageJSON(name string, spec categorySpec) string {
	deps := map[string]string{}
	for _, dep := range spec.dependencies {
		deps[dep] = "latest"
	}
	doc := map[string]any{
		"name":         slugify(name),
		"version":      "1.0.0",
		"private":      true,
		"dependencies": deps,
	}
	raw, _ := json.MarshalIndent(doc, "", "  ")
	return string(raw) + "\n"
}

func renderConfigJSON(repo *build.ToolRepository, req build.ToolBuildRequest) string {
	doc := map[string]any{
		"tool_id":     repo.ID,
		"category":    repo.Category,
		"complexity":  repo.Metadata.Complexity,
		"permissions": repo.Metadata.Permissions,
		"confidence":  req.Confidence,
	}
	raw, _ := json.MarshalIndent(doc, "", "  ")
	return string(raw) + "\n"
}

func renderDeployYAML(repo *build.ToolRepository) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", slugify(repo.Name))
	fmt.Fprintf(&b, "kind: %s\n", repo.Deployment.Kind)
	fmt.Fprintf(&b, "runtime: %s\n", repo.Deployment.Runtime)
	if repo.Deployment.BuildCommand != "" {
		fmt.Fprintf(&b, "build: %s\n", repo.Deployment.BuildCommand)
	}
	if repo.Deployment.StartCommand != "" {
		fmt.Fprintf(&b, "start: %s\n", repo.Deployment.StartCommand)
	}
	fmt.Fprintf(&b, "health_check: %s\n", repo.Deployment.HealthCheck)
	b.WriteString("scaling:\n")
	fmt.Fprintf(&b, "  min: %d\n", repo.Deployment.Scaling.Min)
	fmt.Fprintf(&b, "  target: %d\n", repo.Deployment.Scaling.Target)
	fmt.Fprintf(&b, "  max: %d\n", repo.Deployment.Scaling.Max)
	return b.String()
}

func addBackendFiles(files build.ToolFileStructure, name string, backend backendStack) {
	switch backend.family {
	case "python":
		files["main.py"] = fmt.Sprintf(`"""%s backend."""

from http.server import BaseHTTPRequestHandler, HTTPServer
import json


class Handler(BaseHTTPRequestHandler):
    def do_GET(self):
        if self.path == "/health":
            self.send_response(200)
            self.send_header("Content-Type", "application/json")
            self.end_headers()
            self.wfile.write(json.dumps({"status": "ok"}).encode())
            return
        self.send_response(404)
        self.end_headers()


def main():
    HTTPServer(("0.0.0.0", 8080), Handler).serve_forever()


if __name__ == "__main__":
    main()
`, name)
		files["requirements.txt"] = ""
		files["test_main.py"] = `from main import Handler


def test_handler_exists():
    assert Handler is not None
`
	case "node":
		files["server.js"] = fmt.Sprintf(`// %s backend.
const http = require("http");

const server = http.createServer((req, res) => {
  if (req.url === "/health") {
    res.writeHead(200, { "Content-Type": "application/json" });
    res.end(JSON.stringify({ status: "ok" }));
    return;
  }
  res.writeHead(404);
  res.end();
});

server.listen(process.env.PORT || 8080);
module.exports = server;
`, name)
		files["server.test.js"] = `const server = require("./server");

test("server exports a listener", () => {
  expect(server.listening).toBe(true);
  server.close();
});
`
	}
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
