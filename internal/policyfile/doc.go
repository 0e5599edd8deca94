// Package policyfile builds policies from declarative YAML files.
//
// A file lists policies in evaluation order. Each entry names a rule kind
// (deny, allow, max_value, allow_list, rate_limit, budget) and its params:
//
//	policies:
//	  - name: max-transfer-1eth
//	    method: sendTransaction
//	    target: { blockchain: ethereum }
//	    rule: max_value
//	    params: { field: value, max: "1000000000000000000" }
//
// Stateful rules (rate_limit, budget) keep their counters in the Builder, so
// rebuilding the same file on reload does not reset them.
package policyfile
