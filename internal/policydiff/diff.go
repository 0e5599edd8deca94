// Package policydiff compares two policy files policy by policy.
package policydiff

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/policyfile"
)

// Change represents a field change inside a policy present in both files.
type Change struct {
	Policy  string `json:"policy"`
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// PolicyChange represents a policy addition or removal.
type PolicyChange struct {
	Type   string `json:"type"` // "added", "removed"
	Policy string `json:"policy"`
	Label  string `json:"label"`
}

// DiffResult holds the comparison of two policy files.
type DiffResult struct {
	OldPath       string         `json:"old_path"`
	NewPath       string         `json:"new_path"`
	OldHash       string         `json:"old_hash,omitempty"`
	NewHash       string         `json:"new_hash,omitempty"`
	PolicyChanges []PolicyChange `json:"policy_changes"`
	Changes       []Change       `json:"changes"`
	HasChanges    bool           `json:"has_changes"`
}

// Diff compares two policy files. Policies are matched by name.
func Diff(old, new *policyfile.File) *DiffResult {
	r := &DiffResult{}

	oldIdx := index(old)
	newIdx := index(new)

	for i, spec := range new.Policies {
		j, ok := oldIdx[spec.Name]
		if !ok {
			r.PolicyChanges = append(r.PolicyChanges, PolicyChange{
				Type: "added", Policy: spec.Name, Label: Label(spec),
			})
			continue
		}
		diffSpec(r, old.Policies[j], spec)
		// Order decides which policy a rejection names.
		if i != j {
			r.Changes = append(r.Changes, Change{
				Policy: spec.Name,
				Field:  "position",
				Old:    fmt.Sprintf("%d", j+1),
				New:    fmt.Sprintf("%d", i+1),
			})
		}
	}
	for _, spec := range old.Policies {
		if _, ok := newIdx[spec.Name]; !ok {
			r.PolicyChanges = append(r.PolicyChanges, PolicyChange{
				Type: "removed", Policy: spec.Name, Label: Label(spec),
			})
		}
	}

	r.HasChanges = len(r.Changes) > 0 || len(r.PolicyChanges) > 0
	return r
}

// Label renders a policy as "rule methods=... target=...".
func Label(s policyfile.Spec) string {
	return fmt.Sprintf("%s methods=%s target=%s", s.Rule, methodsLabel(s.Method), targetLabel(s.Target))
}

func index(f *policyfile.File) map[string]int {
	out := make(map[string]int, len(f.Policies))
	for i, spec := range f.Policies {
		if _, dup := out[spec.Name]; !dup {
			out[spec.Name] = i
		}
	}
	return out
}

func diffSpec(r *DiffResult, old, new policyfile.Spec) {
	name := new.Name
	if old.Rule != new.Rule {
		r.Changes = append(r.Changes, Change{
			Policy: name, Field: "rule", Old: old.Rule, New: new.Rule,
			Comment: ruleComment(old.Rule, new.Rule),
		})
	}
	if o, n := methodsLabel(old.Method), methodsLabel(new.Method); o != n {
		r.Changes = append(r.Changes, Change{
			Policy: name, Field: "method", Old: o, New: n,
			Comment: scopeComment(len(old.Method), len(new.Method)),
		})
	}
	if o, n := targetLabel(old.Target), targetLabel(new.Target); o != n {
		r.Changes = append(r.Changes, Change{Policy: name, Field: "target", Old: o, New: n})
	}
	diffParams(r, name, new.Rule, old.Params, new.Params)
}

func diffParams(r *DiffResult, name, rule string, old, new map[string]any) {
	keys := make(map[string]struct{}, len(old)+len(new))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range new {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		ov, ook := old[k]
		nv, nok := new[k]
		if ook && nok && reflect.DeepEqual(ov, nv) {
			continue
		}
		c := Change{Policy: name, Field: "params." + k}
		if ook {
			c.Old = fmt.Sprint(ov)
		}
		if nok {
			c.New = fmt.Sprint(nv)
		}
		if ook && nok && limitParam(rule, k) {
			c.Comment = limitComment(ov, nv)
		}
		r.Changes = append(r.Changes, c)
	}
}

// limitParam reports whether a lower value of params[key] admits fewer calls.
func limitParam(rule, key string) bool {
	switch rule {
	case policyfile.RuleMaxValue, policyfile.RuleBudget:
		return key == "max"
	case policyfile.RuleRateLimit:
		return key == "max_calls"
	}
	return false
}

func limitComment(old, new any) string {
	o, err := policyfile.Amount(old)
	if err != nil {
		return ""
	}
	n, err := policyfile.Amount(new)
	if err != nil {
		return ""
	}
	switch n.Cmp(o) {
	case -1:
		return "stricter"
	case 1:
		return "looser"
	}
	return ""
}

func ruleComment(old, new string) string {
	switch {
	case new == policyfile.RuleDeny:
		return "stricter"
	case new == policyfile.RuleAllow:
		return "looser"
	}
	return ""
}

// scopeComment compares method lists; an empty list gates every method.
func scopeComment(old, new int) string {
	switch {
	case old == 0 && new > 0:
		return "narrower"
	case old > 0 && new == 0:
		return "wider"
	}
	return ""
}

func methodsLabel(m policyfile.Methods) string {
	if len(m) == 0 {
		return "*"
	}
	return strings.Join(m, ",")
}

func targetLabel(t *model.Target) string {
	if t == nil {
		return "*"
	}
	switch t.Scope() {
	case "global":
		return "*"
	case "protocol":
		return "protocol:" + t.Key()
	case "wallet":
		return t.Key()
	}
	return "blockchain:" + t.Key()
}
