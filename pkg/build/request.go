package build

// Category is the closed enumeration of tool categories the classifier can
// infer. Every dispatch table in the orchestrator and generator is validated
// against AllCategories at construction time.
type Category string

const (
	CategoryDataAnalyzer Category = "data-analyzer"
	CategoryTracker      Category = "tracker"
	CategoryConverter    Category = "converter"
	CategoryCalculator   Category = "calculator"
	CategoryDashboard    Category = "dashboard"
	CategoryScraper      Category = "scraper"
	CategoryAPITool      Category = "api-tool"
	CategoryAutomation   Category = "automation"
	CategoryGeneric      Category = "generic"
)

// AllCategories lists every Category value, in stable order.
var AllCategories = []Category{
	CategoryDataAnalyzer,
	CategoryTracker,
	CategoryConverter,
	CategoryCalculator,
	CategoryDashboard,
	CategoryScraper,
	CategoryAPITool,
	CategoryAutomation,
	CategoryGeneric,
}

// Normalize maps unknown category strings to CategoryGeneric.
func (c Category) Normalize() Category {
	for _, known := range AllCategories {
		if c == known {
			return c
		}
	}
	return CategoryGeneric
}

// Complexity is the classifier's effort tier for a request.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Normalize maps unknown complexity strings to ComplexityMedium.
func (c Complexity) Normalize() Complexity {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return c
	}
	return ComplexityMedium
}

// AgentRole names a specialization the multi-agent router can dispatch to.
type AgentRole string

const (
	RoleArchitect AgentRole = "architect"
	RoleFrontend  AgentRole = "frontend-developer"
	RoleBackend   AgentRole = "backend-developer"
	RoleData      AgentRole = "data-engineer"
	RoleFullstack AgentRole = "fullstack-developer"
	RoleQA        AgentRole = "qa-engineer"
	RoleOps       AgentRole = "devops-engineer"
)

// ToolBuildRequest is a classified, structured description of what to build.
// It is produced once by the classifier and may be enriched with memory before
// a session is created. Enrichment is additive only.
type ToolBuildRequest struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Category          Category   `json:"category"`
	Complexity        Complexity `json:"complexity"`
	Technologies      []string   `json:"technologies"`
	Requirements      []string   `json:"requirements"`
	Confidence        float64    `json:"confidence"`
	EstimatedDuration string     `json:"estimated_duration"`
	// Enriched marks that memory enrichment has already been applied, so a
	// second enrichment pass leaves the request unchanged.
	Enriched bool `json:"enriched,omitempty"`
}

// Clone returns a deep copy so enrichment never aliases the classifier's slices.
func (r ToolBuildRequest) Clone() ToolBuildRequest {
	out := r
	out.Technologies = append([]string(nil), r.Technologies...)
	out.Requirements = append([]string(nil), r.Requirements...)
	return out
}
