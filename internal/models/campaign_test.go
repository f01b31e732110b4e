package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Generation lifecycle
		{CampaignStatusDraft, CampaignStatusGenerating, true},
		{CampaignStatusGenerating, CampaignStatusActive, true},
		{CampaignStatusGenerating, CampaignStatusDraft, true},
		{CampaignStatusActive, CampaignStatusCompleted, true},

		// Archiving
		{CampaignStatusDraft, CampaignStatusArchived, true},
		{CampaignStatusActive, CampaignStatusArchived, true},
		{CampaignStatusCompleted, CampaignStatusArchived, true},

		// Invalid transitions
		{CampaignStatusActive, CampaignStatusGenerating, false},
		{CampaignStatusCompleted, CampaignStatusGenerating, false},
		{CampaignStatusGenerating, CampaignStatusArchived, false},
		{CampaignStatusGenerating, CampaignStatusCompleted, false},
		{CampaignStatusArchived, CampaignStatusDraft, false},
		{CampaignStatusDraft, CampaignStatusActive, false},
		{"nonexistent", CampaignStatusDraft, false},
		{CampaignStatusDraft, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		CampaignStatusDraft, CampaignStatusGenerating, CampaignStatusActive,
		CampaignStatusCompleted, CampaignStatusArchived,
	}

	for _, status := range allStatuses {
		if _, ok := ValidCampaignTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidCampaignTransitions map", status)
		}
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	if n := len(ValidCampaignTransitions[CampaignStatusArchived]); n != 0 {
		t.Errorf("archived should have no transitions, got %d", n)
	}
}

func TestUserSettableStatusesAreReachable(t *testing.T) {
	for status := range UserSettableStatuses {
		reachable := false
		for from := range ValidCampaignTransitions {
			if IsValidTransition(from, status) {
				reachable = true
				break
			}
		}
		if !reachable {
			t.Errorf("user settable status %q is not reachable from any status", status)
		}
	}
}

func TestBreakdownTotal(t *testing.T) {
	ad := &Ad{}
	ad.SetBreakdown(CostBreakdown{ImageGeneration: 0.04, CopyGeneration: 0.0002, Upload: 0.000005})
	if ad.GenerationCost != ad.CostBreakdown.Total() {
		t.Errorf("generation cost %v != breakdown total %v", ad.GenerationCost, ad.CostBreakdown.Total())
	}
}
