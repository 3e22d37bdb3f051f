package cmd

import (
	"fmt"
	"strings"
	"time"

	"mirage/core"
)

// renderResult prints a human-readable campaign summary to stdout.
func renderResult(result *core.CampaignResult) {
	c := result.Campaign

	headerColor.Println("CAMPAIGN")
	headerColor.Println(strings.Repeat("=", 100))
	fmt.Printf("%-14s %s\n", "ID:", c.ID)
	fmt.Printf("%-14s %s\n", "Name:", c.Name)
	fmt.Printf("%-14s %s\n", "Type:", c.Type)
	fmt.Printf("%-14s %s\n", "Threat actor:", c.ThreatActor)
	fmt.Printf("%-14s %s -> %s (%s)\n", "Window:",
		c.Duration.Start.Format("2006-01-02 15:04"),
		c.Duration.End.Format("2006-01-02 15:04"),
		c.Duration.Duration().Round(time.Second))
	if result.Partial {
		warningColor.Println("Partial result: run was cancelled before all stages completed")
	}
	fmt.Println()

	headerColor.Println("STAGES")
	fmt.Printf("%-4s %-26s %-8s %-30s %s\n", "#", "Name", "Tactic", "Techniques", "Start")
	fmt.Println(strings.Repeat("-", 100))
	for i, st := range result.Stages {
		fmt.Printf("%-4d %-26s %-8s %-30s %s\n",
			i+1, truncate(st.Name, 25), st.Tactic,
			truncate(strings.Join(st.Techniques, ","), 29),
			st.StartTime.Format("01-02 15:04"))
	}
	fmt.Println()

	events := result.AllEvents()
	infoColor.Printf("Synthesized events: %d   Alerts: %d   Missed: %d   Clusters: %d   Paths: %d\n\n",
		len(events), len(result.DetectedAlerts), len(result.MissedActivities),
		len(result.CorrelationClusters), len(result.MovementPaths))

	if len(result.DetectedAlerts) > 0 {
		headerColor.Println("ALERTS")
		fmt.Printf("%-34s %-10s %-10s %-18s %s\n", "Rule", "Severity", "Technique", "Asset", "Time")
		fmt.Println(strings.Repeat("-", 100))
		for _, a := range result.DetectedAlerts {
			sev := a.Severity
			line := fmt.Sprintf("%-34s %-10s %-10s %-18s %s",
				truncate(a.RuleName, 33), sev, a.Technique,
				truncate(a.SourceAsset, 17), a.Timestamp.Format("01-02 15:04"))
			switch sev {
			case core.SeverityCritical, core.SeverityHigh:
				errorColor.Println(line)
			case core.SeverityMedium:
				warningColor.Println(line)
			default:
				fmt.Println(line)
			}
		}
		fmt.Println()
	}

	if len(result.MissedActivities) > 0 {
		headerColor.Println("MISSED ACTIVITY")
		for _, m := range result.MissedActivities {
			warningColor.Printf("  %s %s (%s): %s, %d logs\n",
				m.StageName, m.Technique, m.StageID[:minInt(8, len(m.StageID))], m.Reason, m.LogCount)
		}
		fmt.Println()
	}

	if len(result.CorrelationClusters) > 0 {
		headerColor.Println("CORRELATION CLUSTERS")
		for _, cl := range result.CorrelationClusters {
			fmt.Printf("  %-8s %-30s events=%-4d confidence=%.2f\n",
				cl.RuleID, truncate(cl.RuleName, 29), len(cl.MatchedEventIDs), cl.ConfidenceScore)
		}
		fmt.Println()
	}

	if len(result.InvestigationGuide) > 0 {
		headerColor.Println("INVESTIGATION GUIDE")
		for _, step := range result.InvestigationGuide {
			successColor.Printf("  %d. %s\n", step.Step, step.Action)
			fmt.Printf("     query:     %s\n", step.Query)
			fmt.Printf("     rationale: %s\n", step.Rationale)
		}
		fmt.Println()
	}

	successColor.Println("Campaign build complete")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
