package orchestrator

import (
	"fmt"

	"github.com/forgeloop/toolwright/pkg/build"
)

// roleAssignments is the fixed role lookup per tool category. Every entry
// starts with the architect role; validateRoleAssignments enforces both full
// category coverage and that invariant at construction time.
var roleAssignments = map[build.Category][]build.AgentRole{
	build.CategoryDataAnalyzer: {build.RoleArchitect, build.RoleData, build.RoleFrontend},
	build.CategoryTracker:      {build.RoleArchitect, build.RoleFrontend},
	build.CategoryConverter:    {build.RoleArchitect, build.RoleFrontend},
	build.CategoryCalculator:   {build.RoleArchitect, build.RoleFrontend},
	build.CategoryDashboard:    {build.RoleArchitect, build.RoleFrontend, build.RoleData},
	build.CategoryScraper:      {build.RoleArchitect, build.RoleBackend},
	build.CategoryAPITool:      {build.RoleArchitect, build.RoleBackend},
	build.CategoryAutomation:   {build.RoleArchitect, build.RoleBackend},
	build.CategoryGeneric:      {build.RoleArchitect, build.RoleFullstack},
}

// AssignRoles returns the agent roles for a request. Complex-tier requests
// additionally receive quality-assurance and operations roles.
func AssignRoles(category build.Category, complexity build.Complexity) []build.AgentRole {
	base := roleAssignments[category.Normalize()]
	roles := append([]build.AgentRole(nil), base...)
	if complexity.Normalize() == build.ComplexityComplex {
		roles = appendRole(roles, build.RoleQA)
		roles = appendRole(roles, build.RoleOps)
	}
	return roles
}

func appendRole(roles []build.AgentRole, role build.AgentRole) []build.AgentRole {
	for _, existing := range roles {
		if existing == role {
			return roles
		}
	}
	return append(roles, role)
}

func validateRoleAssignments() error {
	for _, category := range build.AllCategories {
		roles, ok := roleAssignments[category]
		if !ok {
			return fmt.Errorf("role table missing category %q", category)
		}
		if len(roles) == 0 || roles[0] != build.RoleArchitect {
			return fmt.Errorf("role table for %q must start with %s", category, build.RoleArchitect)
		}
	}
	return nil
}
