package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/policydiff"
	"github.com/ppiankov/walletgate/internal/policyfile"
)

func newPolicyDiffCmd(a *app) *cobra.Command {
	var format string
	var exitCode bool
	cmd := &cobra.Command{
		Use:   "diff <old.yaml> <new.yaml>",
		Short: "Compare two policy files and show changes",
		Long: "Matches policies by name and shows what changed in human-readable terms:\n" +
			"policies added or removed, rule, method, target and parameter changes, and reordering.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldFile, oldHash, err := policyfile.ReadWithHash(args[0])
			if err != nil {
				return errors.Wrap(err, "load old policy")
			}
			newFile, newHash, err := policyfile.ReadWithHash(args[1])
			if err != nil {
				return errors.Wrap(err, "load new policy")
			}

			result := policydiff.Diff(oldFile, newFile)
			result.OldPath, result.NewPath = args[0], args[1]
			result.OldHash, result.NewHash = oldHash, newHash
			a.logger.Debug("policy files compared",
				zap.Int("policy_changes", len(result.PolicyChanges)),
				zap.Int("changes", len(result.Changes)))

			switch format {
			case "json":
				out, err := policydiff.FormatJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), policydiff.FormatText(result))
			default:
				return errors.Errorf("unknown format %q (text|json)", format)
			}

			if exitCode && result.HasChanges {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit 1 when the files differ")
	return cmd
}
