package llm

import "testing"

func TestParseSummary(t *testing.T) {
	valid := `{"summary": "Team agreed on Q3 plan.", "key_decisions": "Ship beta in July", "action_items": [{"description": "Draft rollout doc", "assigned_to": "Priya", "due_date": "2026-07-15"}]}`

	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain json", valid, false},
		{"json fence", "```json\n" + valid + "\n```", false},
		{"bare fence", "```\n" + valid + "\n```", false},
		{"leading whitespace", "\n\n  " + valid, false},
		{"empty response", "", true},
		{"whitespace only", "   \n ", true},
		{"not json", "Here is your summary: the team met.", true},
		{"missing summary", `{"key_decisions": "x", "action_items": []}`, true},
		{"blank summary", `{"summary": "   ", "action_items": []}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseSummary(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSummary: %v", err)
			}
			if res.SummaryText != "Team agreed on Q3 plan." {
				t.Errorf("summary = %q", res.SummaryText)
			}
			if res.KeyDecisions != "Ship beta in July" {
				t.Errorf("key decisions = %q", res.KeyDecisions)
			}
			if len(res.ActionItems) != 1 {
				t.Fatalf("action items = %d, want 1", len(res.ActionItems))
			}
			item := res.ActionItems[0]
			if item.Description != "Draft rollout doc" || item.AssignedTo != "Priya" || item.DueDate != "2026-07-15" {
				t.Errorf("action item = %+v", item)
			}
		})
	}
}

func TestParseSummaryNoActionItems(t *testing.T) {
	res, err := ParseSummary(`{"summary": "Quick sync, nothing assigned.", "key_decisions": "", "action_items": []}`)
	if err != nil {
		t.Fatalf("ParseSummary: %v", err)
	}
	if len(res.ActionItems) != 0 {
		t.Errorf("action items = %d, want 0", len(res.ActionItems))
	}
}
