package generator

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/toolwright/pkg/build"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	gen, err := New("test-author", nil)
	require.NoError(t, err)
	return gen
}

var mandatoryFiles = []string{
	"manifest.json", "index.html", "styles.css",
	"README.md", "package.json", "config.json", "deploy.yml",
}

func TestGenerateMandatoryFilesEveryCategory(t *testing.T) {
	gen := newTestGenerator(t)
	for _, category := range build.AllCategories {
		repo, err := gen.Generate(build.ToolBuildRequest{
			Name:        "Sample " + string(category),
			Description: "sample tool",
			Category:    category,
			Complexity:  build.ComplexityMedium,
		}, testNow)
		require.NoError(t, err, category)
		for _, name := range mandatoryFiles {
			assert.Contains(t, repo.Files, name, "category %s missing %s", category, name)
		}
		assert.Equal(t, string(category)+"-1748779200", repo.ID)
		var manifest map[string]any
		require.NoError(t, json.Unmarshal([]byte(repo.Files["manifest.json"]), &manifest), category)
		assert.Equal(t, string(category), manifest["category"])
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := newTestGenerator(t)
	req := build.ToolBuildRequest{
		Name:        "Expense Tracker",
		Description: "track expenses over time",
		Category:    build.CategoryTracker,
		Complexity:  build.ComplexitySimple,
	}
	first, err := gen.Generate(req, testNow)
	require.NoError(t, err)
	second, err := gen.Generate(req, testNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateCalculatorSandbox(t *testing.T) {
	gen := newTestGenerator(t)
	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:       "Calculator",
		Category:   build.CategoryCalculator,
		Complexity: build.ComplexitySimple,
	}, testNow)
	require.NoError(t, err)

	html := repo.Files["index.html"]
	assert.Contains(t, html, `/^[0-9+\-*/(). \t]+$/`, "input whitelist missing from embedded logic")

	// The README examples carry results verified by the Go-side evaluator.
	assert.Contains(t, repo.Files["README.md"], "`2 + 2` = 4")

	result, err := EvalArithmetic("2 + 2")
	require.NoError(t, err)
	assert.Equal(t, 4.0, result)
	_, err = EvalArithmetic("rm -rf /")
	assert.Error(t, err)
}

func TestGenerateTrackerLogic(t *testing.T) {
	gen := newTestGenerator(t)
	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:        "Habit Tracker",
		Description: "record daily habits",
		Category:    build.CategoryTracker,
		Complexity:  build.ComplexitySimple,
	}, testNow)
	require.NoError(t, err)

	html := repo.Files["index.html"]
	assert.Contains(t, html, "new Date().toISOString()", "tracker entries must be timestamped")
	assert.Contains(t, html, "count: entries.length", "tracker must report the running count")
	assert.Contains(t, repo.Metadata.Permissions, "storage-write")
}

func TestGenerateBackendSelection(t *testing.T) {
	gen := newTestGenerator(t)

	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:         "Data API",
		Category:     build.CategoryAPITool,
		Complexity:   build.ComplexityComplex,
		Technologies: []string{"Python", "Flask"},
	}, testNow)
	require.NoError(t, err)
	assert.Contains(t, repo.Files, "main.py")
	assert.Contains(t, repo.Files, "requirements.txt")
	assert.Contains(t, repo.Files, "test_main.py")
	assert.NotContains(t, repo.Files, "server.js")
	assert.Equal(t, build.DeployContainer, repo.Deployment.Kind)
	assert.Equal(t, "python3.11", repo.Deployment.Runtime)
	assert.Equal(t, "python main.py", repo.Deployment.StartCommand)

	repo, err = gen.Generate(build.ToolBuildRequest{
		Name:         "Webhook Relay",
		Category:     build.CategoryAutomation,
		Complexity:   build.ComplexityMedium,
		Technologies: []string{"Express"},
	}, testNow)
	require.NoError(t, err)
	assert.Contains(t, repo.Files, "server.js")
	assert.Contains(t, repo.Files, "server.test.js")
	assert.NotContains(t, repo.Files, "main.py")
	assert.Equal(t, "node20", repo.Deployment.Runtime)
}

func TestGenerateMixedBackendFamilies(t *testing.T) {
	gen := newTestGenerator(t)

	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:         "Sync Bridge",
		Category:     build.CategoryAPITool,
		Complexity:   build.ComplexityComplex,
		Technologies: []string{"python", "node"},
	}, testNow)
	require.NoError(t, err)

	// One file set per requested family.
	assert.Contains(t, repo.Files, "main.py")
	assert.Contains(t, repo.Files, "requirements.txt")
	assert.Contains(t, repo.Files, "test_main.py")
	assert.Contains(t, repo.Files, "server.js")
	assert.Contains(t, repo.Files, "server.test.js")

	// Python is the primary family and drives the deployment runtime.
	assert.Equal(t, build.DeployContainer, repo.Deployment.Kind)
	assert.Equal(t, "python3.11", repo.Deployment.Runtime)
	assert.Equal(t, "python main.py", repo.Deployment.StartCommand)
}

func TestGenerateEscapesMarkupInRequestText(t *testing.T) {
	gen := newTestGenerator(t)

	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:        "Note <b>Keeper</b>",
		Description: `</textarea><script>alert(1)</script>`,
		Category:    build.CategoryGeneric,
		Complexity:  build.ComplexitySimple,
	}, testNow)
	require.NoError(t, err)

	html := repo.Files["index.html"]
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, "</textarea><script>")
	assert.Contains(t, html, "&lt;/textarea&gt;&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, html, "<h1>Note &lt;b&gt;Keeper&lt;/b&gt;</h1>")
}

func TestGenerateDeploymentInference(t *testing.T) {
	gen := newTestGenerator(t)

	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:       "Counter",
		Category:   build.CategoryGeneric,
		Complexity: build.ComplexitySimple,
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, build.DeployStatic, repo.Deployment.Kind)
	assert.Equal(t, build.ScalingBounds{Min: 1, Target: 2, Max: 3}, repo.Deployment.Scaling)

	repo, err = gen.Generate(build.ToolBuildRequest{
		Name:       "Portfolio Dashboard",
		Category:   build.CategoryDashboard,
		Complexity: build.ComplexityComplex,
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, build.DeployServerless, repo.Deployment.Kind)
	assert.Equal(t, 10, repo.Deployment.Scaling.Max)
}

func TestGeneratePermissionsAndTags(t *testing.T) {
	gen := newTestGenerator(t)
	repo, err := gen.Generate(build.ToolBuildRequest{
		Name:         "Price Watcher",
		Description:  "fetch prices from an API and save the history",
		Category:     build.CategoryAPITool,
		Complexity:   build.ComplexityMedium,
		Technologies: []string{"JavaScript", "javascript", "Chart.js"},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"network", "storage-write"}, repo.Metadata.Permissions)
	assert.Equal(t, []string{"api-tool", "medium", "javascript", "chart.js"}, repo.Metadata.Tags)
	assert.Equal(t, "test-author", repo.Metadata.Author)
	assert.Equal(t, testNow, repo.Metadata.CreatedAt)
}

func TestEstimatedDuration(t *testing.T) {
	assert.Equal(t, "5 minutes", EstimatedDuration(build.ComplexitySimple))
	assert.Equal(t, "15 minutes", EstimatedDuration(build.ComplexityMedium))
	assert.Equal(t, "45 minutes", EstimatedDuration(build.ComplexityComplex))
	assert.Equal(t, "15 minutes", EstimatedDuration(build.Complexity("wild")))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "expense-tracker", slugify("Expense Tracker"))
	assert.Equal(t, "my-tool-2", slugify("  My Tool!! 2 "))
	assert.Equal(t, "", slugify("???"))
}

func TestGenerateEmptyNameFallsBack(t *testing.T) {
	gen := newTestGenerator(t)
	repo, err := gen.Generate(build.ToolBuildRequest{Category: build.CategoryConverter}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "converter-tool", repo.Name)
	assert.True(t, strings.HasPrefix(repo.ID, "converter-"))
}
