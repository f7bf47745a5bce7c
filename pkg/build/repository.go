package build

import "time"

// ToolFileStructure maps canonical file names to generated text content. The
// orchestrator never touches disk; a separate deployment mechanism
// materializes the mapping onto a hosting platform.
type ToolFileStructure map[string]string

// Names returns the file names present in the structure.
func (f ToolFileStructure) Names() []string {
	out := make([]string, 0, len(f))
	for name := range f {
		out = append(out, name)
	}
	return out
}

// ToolMetadata describes a generated artifact.
type ToolMetadata struct {
	Version          string     `json:"version"`
	Author           string     `json:"author"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Tags             []string   `json:"tags"`
	Category         Category   `json:"category"`
	Complexity       Complexity `json:"complexity"`
	EstimatedRuntime string     `json:"estimated_runtime"`
	Dependencies     []string   `json:"dependencies"`
	Permissions      []string   `json:"permissions"`
}

// DeploymentKind selects the hosting model for a generated tool.
type DeploymentKind string

const (
	DeployStatic     DeploymentKind = "static"
	DeployServerless DeploymentKind = "serverless"
	DeployContainer  DeploymentKind = "container"
)

// ScalingBounds are the deployment's instance limits.
type ScalingBounds struct {
	Min    int `json:"min"`
	Max    int `json:"max"`
	Target int `json:"target"`
}

// DeploymentConfig is the inferred deployment descriptor for an artifact.
type DeploymentConfig struct {
	Kind         DeploymentKind    `json:"kind"`
	Runtime      string            `json:"runtime"`
	Environment  map[string]string `json:"environment"`
	BuildCommand string            `json:"build_command"`
	StartCommand string            `json:"start_command"`
	HealthCheck  string            `json:"health_check"`
	Scaling      ScalingBounds     `json:"scaling"`
}

// ToolRepository is the generated artifact: a named, typed file tree plus
// metadata and a deployment descriptor. It is created exactly once per
// successful building phase and immutable thereafter; a rebuild produces a
// new repository rather than editing one in place.
type ToolRepository struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    Category          `json:"category"`
	Files       ToolFileStructure `json:"files"`
	Metadata    ToolMetadata      `json:"metadata"`
	Deployment  DeploymentConfig  `json:"deployment"`
}
