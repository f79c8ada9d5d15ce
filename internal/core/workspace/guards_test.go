package workspace

import "testing"

func TestDerivePrefix(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Platform", "AP"},
		{"kanban", "KAN"},
		{"Go", "GO"},
		{"the big red rocket ship", "TBRR"},
		{"  data-plane  team ", "DPT"},
		{"Ünïcode Only ßß", "NO"},
		{"123 456", DefaultPrefix},
		{"", DefaultPrefix},
		{"v2 api", "VA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePrefix(tt.name); got != tt.want {
				t.Errorf("DerivePrefix(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDerivePrefix_Deterministic(t *testing.T) {
	if DerivePrefix("Acme Platform") != DerivePrefix("Acme Platform") {
		t.Error("prefix derivation must be deterministic")
	}
}

func TestCanChangeMembership(t *testing.T) {
	tests := []struct {
		name        string
		ctx         MembershipChangeContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "demote last owner",
			ctx:         MembershipChangeContext{ActorRole: "owner", CurrentRole: "owner", NewRole: "admin", OwnerCount: 1},
			wantAllowed: false,
			wantReason:  LastOwnerMessage,
		},
		{
			name:        "remove last owner",
			ctx:         MembershipChangeContext{ActorRole: "owner", CurrentRole: "owner", OwnerCount: 1},
			wantAllowed: false,
			wantReason:  LastOwnerMessage,
		},
		{
			name:        "demote one of two owners",
			ctx:         MembershipChangeContext{ActorRole: "owner", CurrentRole: "owner", NewRole: "member", OwnerCount: 2},
			wantAllowed: true,
		},
		{
			name:        "admin cannot promote to owner",
			ctx:         MembershipChangeContext{ActorRole: "admin", CurrentRole: "member", NewRole: "owner", OwnerCount: 1},
			wantAllowed: false,
			wantReason:  OwnerGrantMessage,
		},
		{
			name:        "admin demotes member to member",
			ctx:         MembershipChangeContext{ActorRole: "admin", CurrentRole: "admin", NewRole: "member", OwnerCount: 1},
			wantAllowed: true,
		},
		{
			name:        "invalid role",
			ctx:         MembershipChangeContext{ActorRole: "owner", CurrentRole: "member", NewRole: "superuser", OwnerCount: 1},
			wantAllowed: false,
			wantReason:  InvalidRoleMessage,
		},
		{
			name:        "system caller still keeps last owner",
			ctx:         MembershipChangeContext{CurrentRole: "owner", OwnerCount: 1},
			wantAllowed: false,
			wantReason:  LastOwnerMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanChangeMembership(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanAddMember(t *testing.T) {
	if r := CanAddMember(AddMemberContext{ActorRole: "admin", Role: "member"}); !r.Allowed {
		t.Errorf("admin adding member: %q", r.Reason)
	}
	if r := CanAddMember(AddMemberContext{ActorRole: "admin", Role: "owner"}); r.Reason != OwnerGrantMessage {
		t.Errorf("admin adding owner: %+v", r)
	}
	if r := CanAddMember(AddMemberContext{ActorRole: "owner", Role: "member", AlreadyMember: true}); r.Reason != AlreadyMemberMessage {
		t.Errorf("duplicate member: %+v", r)
	}
	if r := CanCreateWorkspace(CreateWorkspaceContext{Name: " "}); r.Reason != NameRequiredMessage {
		t.Errorf("blank name: %+v", r)
	}
}
