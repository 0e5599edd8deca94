package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/audit"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log operations",
		Long:  "Commands for verifying and inspecting the hash-chained decision log.",
	}
	cmd.AddCommand(newAuditVerifyCmd(a))
	cmd.AddCommand(newAuditTailCmd(a))
	return cmd
}

func newAuditVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <path>",
		Short: "Verify hash chain integrity of an audit log",
		Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := audit.Verify(args[0])
			if result.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
				return nil
			}
			a.logger.Debug("audit chain broken")
			fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
			return &exitError{code: 1}
		},
	}
}

func newAuditTailCmd(a *app) *cobra.Command {
	var (
		lines  int
		format string
		filter audit.Filter
	)
	cmd := &cobra.Command{
		Use:   "tail <path>",
		Short: "Show recent audit log entries",
		Long:  "Reads the last N matching entries from the JSONL audit log and prints\nthem as a timeline or JSON, followed by a decision summary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := audit.Read(args[0], filter, lines)
			if err != nil {
				return err
			}
			a.logger.Debug("audit entries read", zap.Int("count", len(entries)))
			switch format {
			case "json":
				out, err := audit.FormatJSON(entries)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			case "timeline":
				fmt.Fprint(cmd.OutOrStdout(), audit.FormatTimeline(entries))
			default:
				return errors.Errorf("unknown format %q (want timeline or json)", format)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of recent entries to show")
	cmd.Flags().StringVarP(&format, "format", "f", "timeline", "Output format: timeline or json")
	cmd.Flags().StringVar(&filter.Method, "method", "", "Only entries for this method")
	cmd.Flags().StringVar(&filter.Target, "target", "", "Only entries for this target (chain or chain/label)")
	cmd.Flags().StringVar(&filter.Decision, "decision", "", "Only entries with this decision (allow, deny, error)")
	return cmd
}
