package orchestrator

import (
	"fmt"
	"strings"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/memory"
)

// The router contract is text in, text out. These are the only places prompt
// text is assembled, one function per phase, so the stringly-typed boundary
// stays contained.

func planningPrompt(req build.ToolBuildRequest, prefs memory.UserPreferences, similar []memory.ToolMemory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan the build of %q (%s, %s tier).\n", req.Name, req.Category, req.Complexity)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	if len(req.Technologies) > 0 {
		fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(req.Technologies, ", "))
	}
	if len(req.Requirements) > 0 {
		b.WriteString("Requirements:\n")
		for _, r := range req.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	fmt.Fprintf(&b, "User prefers %s deployment and %s testing rigor.\n",
		prefs.DeploymentPreference, prefs.TestingRigor)
	if len(similar) > 0 {
		b.WriteString("Similar past tools:\n")
		for _, tool := range similar {
			fmt.Fprintf(&b, "- %s (%s, %.0fs build, satisfaction %.1f)\n",
				tool.Name, tool.Category, tool.Metrics.BuildTimeSeconds, tool.Metrics.Satisfaction)
		}
	}
	return b.String()
}

func codeReviewPrompt(req build.ToolBuildRequest, repo *build.ToolRepository) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review the generated code for %q (%s).\n", repo.Name, repo.Category)
	fmt.Fprintf(&b, "Files: %s\n", strings.Join(repo.Files.Names(), ", "))
	fmt.Fprintf(&b, "Confidence: %.2f\n", req.Confidence)
	b.WriteString("Check correctness, structure, and completeness against the requirements.\n")
	return b.String()
}

func testingPrompt(req build.ToolBuildRequest, repo *build.ToolRepository) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verify %q (%s, %s tier) before deployment.\n", repo.Name, repo.Category, req.Complexity)
	b.WriteString("Exercise the embedded tool logic against representative inputs ")
	b.WriteString("and confirm error handling for malformed input.\n")
	return b.String()
}
