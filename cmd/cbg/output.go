package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"cbg/internal/query"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printAnswer(resp *query.AnswerResponse, format string) error {
	if format == "json" {
		return printJSON(resp)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answer: %s\n", resp.Answer)
	fmt.Fprintf(&b, "Confidence: %.2f (%s)", resp.Confidence, resp.Band)
	if resp.NeedsHuman {
		b.WriteString("  [needs human review]")
	}
	b.WriteString("\n")
	if resp.Mode == query.ModeEscalate {
		b.WriteString("Mode: escalate\n")
	}
	if len(resp.Flags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(resp.Flags, ", "))
	}
	fmt.Fprintf(&b, "Uncertainty: %s\n", resp.Uncertainty)

	if len(resp.Components) > 0 {
		b.WriteString("Evidence:\n")
		for i, c := range resp.Components {
			fmt.Fprintf(&b, "  %d. %s (score %.2f)\n", i+1, c.Description, c.Score)
		}
	}
	if len(resp.Owners) > 0 {
		fmt.Fprintf(&b, "Owners: %s\n", strings.Join(resp.Owners, ", "))
	}
	if len(resp.NextActions) > 0 {
		b.WriteString("Next actions:\n")
		for _, a := range resp.NextActions {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}

	fmt.Print(b.String())
	return nil
}
