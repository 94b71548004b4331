package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"tenant-control-plane/backend/internal/rbac/domain"
)

// defaultRegoPolicy mirrors the union evaluator: an action is allowed when
// any assigned role grants it, and the permission set is the union over all
// roles. Deployments can swap in stricter policies (deny rules, wildcard
// grants) without touching the evaluator.
const defaultRegoPolicy = `package tenancy.rbac

default allow = false

allow if {
	some role in input.roles
	role.permissions[_] == input.action
}

permissions contains p if {
	some role in input.roles
	p := role.permissions[_]
}
`

// OPAEvaluator evaluates permissions through OPA Rego. The policies given at
// construction replace the default; with no policies it behaves exactly like
// UnionEvaluator.
type OPAEvaluator struct {
	modules map[string]string
}

// NewOPAEvaluator returns an OPA-backed evaluator using the given Rego
// policies, or the default union policy when none are given.
func NewOPAEvaluator(policies ...string) *OPAEvaluator {
	modules := make(map[string]string)
	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	return &OPAEvaluator{modules: modules}
}

// HealthCheck verifies that the configured policies compile and evaluate.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, "data.tenancy.rbac.allow", map[string]interface{}{
		"action": "document:read",
		"roles":  []interface{}{},
	})
	return err
}

// HasPermission evaluates data.tenancy.rbac.allow for the given action.
func (e *OPAEvaluator) HasPermission(ctx context.Context, assignments []domain.ResolvedAssignment, action string) (bool, error) {
	value, err := e.eval(ctx, "data.tenancy.rbac.allow", buildInput(assignments, action))
	if err != nil {
		return false, err
	}
	allowed, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("policy allow returned %T, want bool", value)
	}
	return allowed, nil
}

// ListPermissions evaluates data.tenancy.rbac.permissions and returns the
// sorted result.
func (e *OPAEvaluator) ListPermissions(ctx context.Context, assignments []domain.ResolvedAssignment) ([]string, error) {
	value, err := e.eval(ctx, "data.tenancy.rbac.permissions", buildInput(assignments, ""))
	if err != nil {
		return nil, err
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("policy permissions returned %T, want set", value)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("policy permissions contains %T, want string", item)
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (e *OPAEvaluator) eval(ctx context.Context, query string, input map[string]interface{}) (interface{}, error) {
	compiler, err := ast.CompileModules(e.modules)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}
	q := rego.New(
		rego.Query(query),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("eval %s: %w", query, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, fmt.Errorf("eval %s: no result", query)
	}
	return rs[0].Expressions[0].Value, nil
}

func buildInput(assignments []domain.ResolvedAssignment, action string) map[string]interface{} {
	roles := make([]interface{}, 0, len(assignments))
	for i := range assignments {
		role := assignments[i].Role
		perms := make([]interface{}, 0, len(role.Permissions))
		for _, p := range role.Permissions {
			perms = append(perms, p.Action)
		}
		roles = append(roles, map[string]interface{}{
			"name":        role.Name,
			"permissions": perms,
		})
	}
	return map[string]interface{}{
		"action": action,
		"roles":  roles,
	}
}
