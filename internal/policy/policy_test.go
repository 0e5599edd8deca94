package policy

import (
	"context"
	"testing"

	"github.com/ppiankov/walletgate/internal/model"
)

func TestValidate(t *testing.T) {
	ok := Static(true)
	cases := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid global", Policy{Name: "p", Evaluate: ok}, false},
		{"missing name", Policy{Evaluate: ok}, true},
		{"missing evaluator", Policy{Name: "p"}, true},
		{"blockchain and protocol", Policy{Name: "p", Evaluate: ok, Target: &model.Target{
			Blockchain: "ethereum",
			Protocol:   &model.ProtocolRef{Blockchain: "ethereum", Label: "x"},
		}}, true},
		{"protocol without label", Policy{Name: "p", Evaluate: ok, Target: &model.Target{
			Protocol: &model.ProtocolRef{Blockchain: "ethereum"},
		}}, true},
		{"protocol target", Policy{Name: "p", Evaluate: ok, Target: &model.Target{
			Protocol: &model.ProtocolRef{Blockchain: "ethereum", Label: "x"},
		}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.policy.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("expected error=%v, got %v", c.wantErr, err)
			}
		})
	}
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	err := ValidateAll([]Policy{
		{Name: "p", Evaluate: Static(true)},
		{Name: "p", Evaluate: Static(false)},
	})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestPredicate(t *testing.T) {
	eval := Predicate(func(c model.Call) bool { return c.Method == "sign" })
	allowed, err := eval(context.Background(), model.Call{Method: "sign"})
	if err != nil || !allowed {
		t.Errorf("expected allowed, got %v %v", allowed, err)
	}
	allowed, _ = eval(context.Background(), model.Call{Method: "transfer"})
	if allowed {
		t.Error("expected transfer rejected")
	}
}
