package timeline

import (
	"fmt"

	"mirage/core"
)

// BuildGuide derives the ordered investigation guide. The first two steps
// are always alert review and supporting-log pivoting; later steps depend on
// the campaign type.
func BuildGuide(campaign *core.Campaign, alerts []*core.Alert, clusters []core.CorrelationCluster) []core.InvestigationStep {
	ruleQuery := `rule_name:*`
	if len(alerts) > 0 {
		ruleQuery = fmt.Sprintf("rule_name:%q", alerts[0].RuleName)
	}

	steps := []core.InvestigationStep{
		{
			Step:      1,
			Action:    "Review initial alerts",
			Query:     ruleQuery,
			Rationale: "Triage the highest-severity alerts first to establish scope",
		},
		{
			Step:      2,
			Action:    "Investigate supporting logs",
			Query:     correlationQuery(campaign, alerts),
			Rationale: "Pivot on correlation_id to pull every log tied to the alerting stage",
		},
	}

	switch campaign.Type {
	case core.ScenarioAPT:
		steps = append(steps,
			core.InvestigationStep{
				Step:      3,
				Action:    "Trace lateral movement",
				Query:     `technique:(T1021 OR T1210) AND event_type:log`,
				Rationale: "Check for persistence indicators (scheduled tasks, autostart entries) on every host the actor touched",
			},
			core.InvestigationStep{
				Step:      4,
				Action:    "Audit credential exposure",
				Query:     `dataset:authentication AND auth_result:failed`,
				Rationale: "Harvested credentials outlive the intrusion; rotate anything the actor could read",
			})
	case core.ScenarioRansomware:
		steps = append(steps, core.InvestigationStep{
			Step:      3,
			Action:    "Verify backup integrity",
			Query:     `command_line:(vssadmin OR wbadmin OR bcdedit)`,
			Rationale: "Recovery tampering precedes encryption; confirm restore points survive",
		})
	case core.ScenarioInsider:
		steps = append(steps, core.InvestigationStep{
			Step:      3,
			Action:    "Review bulk data access",
			Query:     `dataset:file AND action:(copy OR archive)`,
			Rationale: "Compare accessed volumes against the user's normal working set",
		})
	case core.ScenarioSupplyChain:
		steps = append(steps, core.InvestigationStep{
			Step:      3,
			Action:    "Audit software provenance",
			Query:     `technique:T1195`,
			Rationale: "Identify every host that installed the trojanized update",
		})
	}

	if len(clusters) > 0 {
		steps = append(steps, core.InvestigationStep{
			Step:      len(steps) + 1,
			Action:    "Walk correlated incident clusters",
			Query:     fmt.Sprintf("rule_id:%s", clusters[0].RuleID),
			Rationale: "Clusters order the strongest cross-technique evidence for the incident report",
		})
	}
	return steps
}

func correlationQuery(campaign *core.Campaign, alerts []*core.Alert) string {
	if len(alerts) > 0 {
		return fmt.Sprintf("correlation_id:%q", alerts[0].CorrelationID)
	}
	return fmt.Sprintf("correlation_id:%s-*", campaign.ID)
}
