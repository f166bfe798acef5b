package rules

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed policy.rego
var defaultPolicy string

// PolicyQuery is the rego rule the checker evaluates.
const PolicyQuery = "data.reqwing.rules.findings"

// FindingKind classifies a policy finding.
type FindingKind string

const (
	FindingOutOfScope FindingKind = "out_of_scope"
	FindingPostV1     FindingKind = "post_v1"
	FindingPremium    FindingKind = "premium"
)

// Finding flags one requirement against the business rules.
type Finding struct {
	Requirement string      `json:"requirement"`
	Kind        FindingKind `json:"kind"`
	Note        string      `json:"note"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s]: %s", f.Requirement, f.Kind, f.Note)
}

// Checker evaluates requirements against the rules policy locally with OPA.
type Checker struct {
	query rego.PreparedEvalQuery
}

// NewChecker compiles the built-in policy.
func NewChecker(ctx context.Context) (*Checker, error) {
	return NewCheckerWithPolicy(ctx, "policy.rego", defaultPolicy)
}

// NewCheckerWithPolicy compiles a custom rego module. The module must define
// the reqwing.rules package and a findings set.
func NewCheckerWithPolicy(ctx context.Context, name, module string) (*Checker, error) {
	pq, err := rego.New(
		rego.Query(PolicyQuery),
		rego.Module(name, module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile rules policy: %w", err)
	}
	return &Checker{query: pq}, nil
}

// Check returns findings for the given requirements, sorted by requirement then kind.
func (c *Checker) Check(ctx context.Context, r *BusinessRules, requirements []string) ([]Finding, error) {
	if len(requirements) == 0 {
		return nil, nil
	}
	input := map[string]any{
		"requirements": requirements,
		"constraints": map[string]any{
			"platforms":    r.TechnicalConstraints.Platforms,
			"integrations": r.TechnicalConstraints.Integrations,
		},
		"keywords": map[string]any{
			"out_of_scope": nonNil(r.Keywords.OutOfScope),
			"post_v1":      nonNil(r.Keywords.PostV1),
			"premium":      premiumInput(r.Keywords.Premium),
		},
	}

	rs, err := c.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluate rules policy: %w", err)
	}

	var findings []Finding
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range set {
				obj, ok := item.(map[string]any)
				if !ok {
					continue
				}
				f := Finding{}
				f.Requirement, _ = obj["requirement"].(string)
				kind, _ := obj["kind"].(string)
				f.Kind = FindingKind(kind)
				f.Note, _ = obj["note"].(string)
				findings = append(findings, f)
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Requirement != findings[j].Requirement {
			return findings[i].Requirement < findings[j].Requirement
		}
		if findings[i].Kind != findings[j].Kind {
			return findings[i].Kind < findings[j].Kind
		}
		return findings[i].Note < findings[j].Note
	})
	return findings, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func premiumInput(m map[string][]string) map[string]any {
	out := make(map[string]any, len(m))
	for feature, terms := range m {
		out[feature] = nonNil(terms)
	}
	return out
}
