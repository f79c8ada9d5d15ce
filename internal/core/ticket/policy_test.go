package ticket

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		from, to Status
		want     TransitionClass
	}{
		{StatusUnclaimed, StatusUnclaimed, ClassStandard},
		{StatusInProgress, StatusInProgress, ClassStandard},
		{StatusDone, StatusDone, ClassStandard},
		{StatusUnclaimed, StatusInProgress, ClassStandard},
		{StatusInProgress, StatusDone, ClassStandard},
		{StatusUnclaimed, StatusDone, ClassNonStandard},
		{StatusInProgress, StatusUnclaimed, ClassNonStandard},
		{StatusDone, StatusInProgress, ClassNonStandard},
		{StatusDone, StatusUnclaimed, ClassNonStandard},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := Classify(tt.from, tt.to); got != tt.want {
				t.Errorf("Classify(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestValidateForActor(t *testing.T) {
	tests := []struct {
		name        string
		ctx         TransitionContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "agent standard transition without reason",
			ctx:         TransitionContext{From: StatusUnclaimed, To: StatusInProgress, IsAgentCaller: true},
			wantAllowed: true,
		},
		{
			name:        "agent reopen without reason",
			ctx:         TransitionContext{From: StatusDone, To: StatusUnclaimed, IsAgentCaller: true},
			wantAllowed: false,
			wantReason:  ReasonRequiredMessage,
		},
		{
			name:        "agent reopen with whitespace reason",
			ctx:         TransitionContext{From: StatusDone, To: StatusInProgress, IsAgentCaller: true, Reason: "   \t"},
			wantAllowed: false,
			wantReason:  ReasonRequiredMessage,
		},
		{
			name:        "agent reopen with reason",
			ctx:         TransitionContext{From: StatusDone, To: StatusInProgress, IsAgentCaller: true, Reason: "regression found"},
			wantAllowed: true,
		},
		{
			name:        "agent skip to done without reason",
			ctx:         TransitionContext{From: StatusUnclaimed, To: StatusDone, IsAgentCaller: true},
			wantAllowed: false,
			wantReason:  ReasonRequiredMessage,
		},
		{
			name:        "human reopen without reason",
			ctx:         TransitionContext{From: StatusDone, To: StatusUnclaimed},
			wantAllowed: true,
		},
		{
			name:        "agent no-op",
			ctx:         TransitionContext{From: StatusDone, To: StatusDone, IsAgentCaller: true},
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateForActor(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestApplyStatusTransition(t *testing.T) {
	current := &Owner{ID: "user-1", Type: "user", DisplayName: "Ada"}
	explicit := &Owner{ID: "apikey:k1", Type: "agent"}

	t.Run("to unclaimed clears owner", func(t *testing.T) {
		result := ApplyStatusTransition(StatusDone, StatusUnclaimed, current, explicit)
		if result.Owner != nil {
			t.Errorf("Owner = %+v, want nil", result.Owner)
		}
		if result.DoneDelta != -1 {
			t.Errorf("DoneDelta = %d, want -1", result.DoneDelta)
		}
	})

	t.Run("preserves current owner without explicit owner", func(t *testing.T) {
		result := ApplyStatusTransition(StatusInProgress, StatusDone, current, nil)
		if result.Owner == nil || result.Owner.ID != "user-1" {
			t.Errorf("Owner = %+v, want user-1", result.Owner)
		}
		if result.DoneDelta != 1 {
			t.Errorf("DoneDelta = %d, want 1", result.DoneDelta)
		}
	})

	t.Run("explicit owner replaces current", func(t *testing.T) {
		result := ApplyStatusTransition(StatusUnclaimed, StatusInProgress, nil, explicit)
		if result.Owner == nil || result.Owner.ID != "apikey:k1" {
			t.Errorf("Owner = %+v, want apikey:k1", result.Owner)
		}
		if result.DoneDelta != 0 {
			t.Errorf("DoneDelta = %d, want 0", result.DoneDelta)
		}
	})

	t.Run("result does not alias inputs", func(t *testing.T) {
		result := ApplyStatusTransition(StatusInProgress, StatusInProgress, current, nil)
		result.Owner.ID = "changed"
		if current.ID != "user-1" {
			t.Error("ApplyStatusTransition must copy the owner")
		}
	})
}

func TestParseStatus(t *testing.T) {
	if _, ok := ParseStatus("in_progress"); !ok {
		t.Error("in_progress should parse")
	}
	if _, ok := ParseStatus("paused"); ok {
		t.Error("paused should not parse")
	}
	if _, ok := ParseStatus(""); ok {
		t.Error("empty should not parse")
	}
}
