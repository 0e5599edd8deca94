package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/mutating"
	"github.com/ppiankov/walletgate/internal/policy"
	"github.com/ppiankov/walletgate/internal/policyfile"
)

const defaultPolicyFile = "walletgate-policies.yaml"

func newPolicyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Policy file operations",
		Long:  "Commands for creating, validating and dry-running declarative policy files.",
	}
	cmd.AddCommand(newPolicyLintCmd(a))
	cmd.AddCommand(newPolicyCheckCmd(a))
	cmd.AddCommand(newPolicyInitCmd(a))
	cmd.AddCommand(newPolicyDiffCmd(a))
	cmd.AddCommand(newPolicyMethodsCmd())
	return cmd
}

func newPolicyLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Validate a policy file",
		Long:  "Parses the policy file and reports every invalid policy at once.\nExits 0 if valid, 1 otherwise.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := policyfile.NewBuilder(nil).Load(args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
				return &exitError{code: 1}
			}
			a.logger.Debug("policy file linted", zap.String("path", args[0]), zap.String("hash", loaded.Hash))
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d policies (%s)\n", len(loaded.Policies), loaded.Hash)
			for i, p := range loaded.Policies {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s  methods=%s  target=%s\n",
					i+1, p.Name, describeMethods(p.Methods), describeFilter(p.Target))
			}
			return nil
		},
	}
}

type checkResult struct {
	Decision  string   `json:"decision"`
	Method    string   `json:"method"`
	Target    string   `json:"target"`
	Evaluated []string `json:"evaluated"`
	Policy    string   `json:"policy,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

func newPolicyCheckCmd(a *app) *cobra.Command {
	var (
		blockchain string
		protocol   string
		method     string
		params     string
		extra      []string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Dry-run a call against a policy file",
		Long: "Evaluates one call against the policies in a file without touching any\n" +
			"wallet. Exits 0 when the call would be allowed, 1 when rejected.",
		Example: `  walletgate policy check policies.yaml --blockchain ethereum \
      --method sendTransaction --params '{"value": "2000000000000000000"}'
  walletgate policy check policies.yaml --blockchain ethereum --protocol velora --method swap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := policyfile.NewBuilder(nil).Load(args[0])
			if err != nil {
				return err
			}
			call, err := buildCall(blockchain, protocol, method, params)
			if err != nil {
				return err
			}
			methods := mutating.Default()
			methods.Add(extra...)

			tr, evalErr := policy.EvaluateWithTrace(cmd.Context(), loaded.Policies, call, methods)
			res := checkResult{
				Decision:  string(model.Allow),
				Method:    call.Method,
				Target:    call.Target.Key(),
				Evaluated: tr.Evaluated,
				Policy:    tr.Rejected,
			}
			if res.Evaluated == nil {
				res.Evaluated = []string{}
			}
			if evalErr != nil {
				res.Decision = string(model.Error)
				if _, ok := policy.AsViolation(evalErr); ok {
					res.Decision = string(model.Deny)
				}
				res.Reason = evalErr.Error()
			}
			a.logger.Debug("policy check", zap.String("decision", res.Decision), zap.Strings("evaluated", res.Evaluated))

			if err := printCheck(cmd, res, asJSON, methods.Contains(call.Method)); err != nil {
				return err
			}
			if evalErr != nil {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&blockchain, "blockchain", "", "Blockchain of the call (required)")
	cmd.Flags().StringVar(&protocol, "protocol", "", "Protocol label; makes this a protocol call")
	cmd.Flags().StringVar(&method, "method", "", "Method name (required)")
	cmd.Flags().StringVar(&params, "params", "", "Call params as a JSON object")
	cmd.Flags().StringSliceVar(&extra, "mutating", nil, "Extra method names to treat as mutating")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.MarkFlagRequired("blockchain")
	cmd.MarkFlagRequired("method")
	return cmd
}

func buildCall(blockchain, protocol, method, params string) (model.Call, error) {
	call := model.Call{Method: method, Target: model.WalletTarget(blockchain)}
	if protocol != "" {
		call.Target = model.ProtocolTarget(blockchain, protocol)
	}
	if params == "" {
		return call, nil
	}
	var decoded map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(params)))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return call, errors.Wrap(err, "invalid --params JSON")
	}
	call.Params = decoded
	return call, nil
}

func printCheck(cmd *cobra.Command, res checkResult, asJSON, gated bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal check result")
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	if !gated {
		fmt.Fprintf(out, "NOTE: %s is not a mutating method; it is never gated\n", res.Method)
	}
	evaluated := "none"
	if len(res.Evaluated) > 0 {
		evaluated = strings.Join(res.Evaluated, ", ")
	}
	fmt.Fprintf(out, "%s %s on %s (evaluated: %s)\n", strings.ToUpper(res.Decision), res.Method, res.Target, evaluated)
	if res.Reason != "" {
		fmt.Fprintf(out, "  %s\n", res.Reason)
	}
	return nil
}

func newPolicyInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter policy file",
		Long:  "Creates a commented example policy file (default " + defaultPolicyFile + ").",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultPolicyFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(policyfile.DefaultYAML()), 0o644); err != nil {
				return errors.Wrap(err, "write policy file")
			}
			a.logger.Debug("policy file written", zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func describeMethods(methods []string) string {
	if len(methods) == 0 {
		return "<mutating>"
	}
	return strings.Join(methods, ",")
}

func describeFilter(t *model.Target) string {
	if t == nil {
		return "<any>"
	}
	return t.Scope() + ":" + t.Key()
}
