package dashboard

import "github.com/josephgoksu/ReqWing/internal/project"

// DemoRecords returns a small fixed portfolio for previews.
func DemoRecords() []*project.Record {
	mk := func(id int64, title string, stage project.Stage, scores map[string]int, reqs ...string) *project.Record {
		r := &project.Record{
			ID:             id,
			Title:          title,
			Requirements:   reqs,
			PriorityScores: scores,
			Stage:          stage,
		}
		r.Transcript = []project.Message{{Role: project.RoleUser, Content: title}}
		return r
	}
	return []*project.Record{
		mk(1001, "Personal budget tracker", project.StageFinalDocument,
			map[string]int{"Track expenses by category": 9, "Monthly budget alerts": 7, "CSV export": 3},
			"Track expenses by category", "Monthly budget alerts", "CSV export"),
		mk(1002, "Bank account sync", project.StagePrioritization, nil,
			"Connect bank accounts via aggregator", "Nightly transaction import"),
		mk(1003, "Shared household budgets", project.StageClarification, nil,
			"Invite family members", "Split shared expenses", "Per-member spending view", "Mobile notifications"),
		mk(1004, "Receipt scanning", project.StageFinalDocument,
			map[string]int{"Photograph receipts": 8, "Extract totals with OCR": 8, "Attach receipt to expense": 5},
			"Photograph receipts", "Extract totals with OCR", "Attach receipt to expense"),
		mk(1005, "Savings goals", project.StageFinalDocument,
			map[string]int{"Create savings goals": 6, "Progress chart": 4},
			"Create savings goals", "Progress chart"),
		mk(1006, "Investment overview", project.StageInitial, nil),
	}
}
