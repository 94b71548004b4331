// Package engine evaluates permissions over a user's resolved role
// assignments. The union evaluator is the deterministic default; an OPA
// evaluator is available for deployments with custom Rego policies.
package engine

import (
	"context"
	"sort"

	"tenant-control-plane/backend/internal/rbac/domain"
)

// Evaluator answers "can user U perform action P" over the assignments
// resolved for one (user, scope) pair. Implementations are side-effect-free
// and deterministic given identical input, so results may be cached per
// request but never across requests without invalidation on role or
// assignment change.
type Evaluator interface {
	// HasPermission reports whether any assigned role grants action.
	HasPermission(ctx context.Context, assignments []domain.ResolvedAssignment, action string) (bool, error)
	// ListPermissions returns the sorted distinct union of all granted actions.
	ListPermissions(ctx context.Context, assignments []domain.ResolvedAssignment) ([]string, error)
}

// UnionEvaluator is the pure union-of-roles evaluator.
type UnionEvaluator struct{}

// NewUnionEvaluator returns the default evaluator.
func NewUnionEvaluator() *UnionEvaluator { return &UnionEvaluator{} }

// HasPermission reports whether any resolved role grants action.
func (UnionEvaluator) HasPermission(_ context.Context, assignments []domain.ResolvedAssignment, action string) (bool, error) {
	for i := range assignments {
		if assignments[i].Role.HasPermission(action) {
			return true, nil
		}
	}
	return false, nil
}

// ListPermissions returns the union of all roles' actions, sorted for
// deterministic output.
func (UnionEvaluator) ListPermissions(_ context.Context, assignments []domain.ResolvedAssignment) ([]string, error) {
	seen := make(map[string]struct{})
	for i := range assignments {
		for _, p := range assignments[i].Role.Permissions {
			seen[p.Action] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for action := range seen {
		out = append(out, action)
	}
	sort.Strings(out)
	return out, nil
}
