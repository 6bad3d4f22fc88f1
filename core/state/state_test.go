package state

import "testing"

func TestBoxState_String(t *testing.T) {
	tests := []struct {
		state    BoxState
		expected string
	}{
		{StateUnlabeled, "Unlabeled"},
		{StateLabeled, "Labeled"},
		{StateDeleted, "Deleted"},
		{BoxState(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("BoxState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBoxState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     BoxState
		to       BoxState
		expected bool
	}{
		{"Unlabeled -> Labeled", StateUnlabeled, StateLabeled, true},
		{"Unlabeled -> Deleted", StateUnlabeled, StateDeleted, true},
		{"Unlabeled -> Unlabeled (invalid)", StateUnlabeled, StateUnlabeled, false},

		// Relabel is Labeled -> Labeled
		{"Labeled -> Labeled", StateLabeled, StateLabeled, true},
		{"Labeled -> Deleted", StateLabeled, StateDeleted, true},
		{"Labeled -> Unlabeled (invalid)", StateLabeled, StateUnlabeled, false},

		// Deleted is terminal
		{"Deleted -> Unlabeled (invalid)", StateDeleted, StateUnlabeled, false},
		{"Deleted -> Labeled (invalid)", StateDeleted, StateLabeled, false},
		{"Deleted -> Deleted (invalid)", StateDeleted, StateDeleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBoxState_IsTerminal(t *testing.T) {
	if StateUnlabeled.IsTerminal() || StateLabeled.IsTerminal() {
		t.Error("only Deleted should be terminal")
	}
	if !StateDeleted.IsTerminal() {
		t.Error("Deleted should be terminal")
	}
}

func TestBoxState_Predicates(t *testing.T) {
	if StateUnlabeled.IsExportable() {
		t.Error("unlabeled box must not be exportable")
	}
	if !StateLabeled.IsExportable() {
		t.Error("labeled box must be exportable")
	}
	if StateUnlabeled.CanAnnotate() || StateDeleted.CanAnnotate() {
		t.Error("only labeled boxes accept attributes and relationships")
	}
}

func TestTransitionError_Error(t *testing.T) {
	err := NewTransitionError(StateDeleted, StateLabeled, "box already removed")
	want := "invalid box transition from Deleted to Labeled: box already removed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = NewTransitionError(StateUnlabeled, StateUnlabeled, "")
	want = "invalid box transition from Unlabeled to Unlabeled"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
