package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return json.Marshal(event)
	}
}

func formatSlack(event Event) ([]byte, error) {
	policy := event.Policy
	if policy == "" {
		policy = "-"
	}
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("walletgate: %s %s", event.Decision, event.Method),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Target:* %s", event.Target)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Policy:* %s", policy)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Call:* %s", event.CallID)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	// Evaluator failures mean the gate could not decide; page harder.
	severity := "warning"
	if event.Decision == "error" {
		severity = "error"
	}
	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("walletgate %s: %s on %s", event.Decision, event.Method, event.Target),
			"severity": severity,
			"source":   "walletgate",
			"custom_details": map[string]any{
				"method":      event.Method,
				"target":      event.Target,
				"policy":      event.Policy,
				"reason":      event.Reason,
				"call_id":     event.CallID,
				"policy_hash": event.PolicyHash,
			},
		},
	}
	return json.Marshal(payload)
}
