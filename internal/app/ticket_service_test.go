package app_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/ticket"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

func TestCreateTicket_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme Platform", "u-owner")

	created, err := f.tickets.CreateTicket(ctx, owner, primary.CreateTicketRequest{Title: "  Fix login bug  ", Description: "steps"})
	require.NoError(t, err)

	got, err := f.tickets.GetTicket(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix login bug", got.Title)
	assert.Equal(t, "unclaimed", got.Status)
	assert.False(t, got.Archived)
	assert.Nil(t, got.OwnerID)
	assert.Nil(t, got.OwnerType)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, 1, got.Number)
	assert.Equal(t, "AP-1", got.Key)
	require.NotNil(t, got.Description)
	assert.Equal(t, "steps", *got.Description)
	assert.Equal(t, float64(testNow.UnixMilli()), got.Order)

	byKey, err := f.tickets.GetTicket(ctx, owner, "AP-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)

	second := f.createTicket(t, owner, "Second", "")
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, got.Order+ticket.OrderIncrement, second.Order)

	events, err := f.tickets.ListActivity(ctx, owner, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, secondary.ActivityTicketCreated, events[0].Type)
	assert.Equal(t, "u-owner", events[0].Actor.ID)
}

func TestCreateTicket_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	other := f.newWorkspace(t, "Other", "u-other")
	foreign := f.createTicket(t, other, "Foreign", "")

	tests := []struct {
		name    string
		req     primary.CreateTicketRequest
		message string
	}{
		{"blank title", primary.CreateTicketRequest{Title: "   "}, ticket.TitleRequiredMessage},
		{"unknown parent", primary.CreateTicketRequest{Title: "x", ParentID: "missing"}, ticket.InvalidParentMessage},
		{"parent in other workspace", primary.CreateTicketRequest{Title: "x", ParentID: foreign.ID}, ticket.InvalidParentMessage},
		{"unknown doc", primary.CreateTicketRequest{Title: "x", DocID: "missing"}, "Invalid doc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(ctx, owner, tt.req)
			e := requireKind(t, err, apperr.KindValidation)
			assert.Equal(t, tt.message, e.Message)
		})
	}

	ws, err := f.workspaces.GetWorkspace(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, ws.TicketCounter, "failed creates must not consume numbers")
}

func TestCreateTicket_ChildUpdatesParentCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")

	parent := f.createTicket(t, owner, "Parent", "")
	first := f.createTicket(t, owner, "Child 1", parent.ID)
	second := f.createTicket(t, owner, "Child 2", parent.ID)

	got, err := f.tickets.GetTicket(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ChildCount)
	assert.Equal(t, 0, got.ChildDoneCount)
	assert.Equal(t, first.Order+ticket.OrderIncrement, second.Order)
}

func TestClaimTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	agent := f.agentScope(t, owner, access.KeyRoleAgent, "")
	tk := f.createTicket(t, owner, "Claim me", "")

	claimed, err := f.tickets.ClaimTicket(ctx, agent, tk.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", claimed.Status)
	require.NotNil(t, claimed.OwnerID)
	assert.Equal(t, "apikey:"+agent.Principal.APIKeyID, *claimed.OwnerID)
	assert.Equal(t, "agent", *claimed.OwnerType)
	assert.Equal(t, "agent bot", *claimed.OwnerDisplayName)

	_, err = f.tickets.ClaimTicket(ctx, owner, tk.ID, primary.ClaimTicketRequest{})
	e := requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, ticket.NotClaimableMessage, e.Message)
	assert.Equal(t, "in_progress", e.Details["currentStatus"])

	assert.Equal(t, 1, f.metrics.claims["won"])
	assert.Equal(t, 1, f.metrics.claims["conflict"])

	events, err := f.tickets.ListActivity(ctx, owner, tk.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, secondary.ActivityTicketAssignmentChanged, events[0].Type)
	assert.Equal(t, secondary.ActivityTicketStatusChanged, events[1].Type)
	assert.JSONEq(t, `{"from":"unclaimed","to":"in_progress","class":"standard"}`, string(events[1].Data))
	assert.Equal(t, secondary.ActivityTicketCreated, events[2].Type)
}

func TestTicketMetrics_OnlyCountCommittedChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	claimable := f.createTicket(t, owner, "Claim me", "")
	started := f.createTicket(t, owner, "Finish me", "")
	_, err := f.tickets.ClaimTicket(ctx, owner, started.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{"unclaimed>in_progress:standard"}, f.metrics.transitions)
	require.Equal(t, 1, f.metrics.claims["won"])

	f.store.failLedger(true)

	_, err = f.tickets.ClaimTicket(ctx, owner, claimable.ID, primary.ClaimTicketRequest{})
	requireKind(t, err, apperr.KindInternal)
	_, err = f.tickets.CompleteTicket(ctx, owner, started.ID)
	requireKind(t, err, apperr.KindInternal)
	_, err = f.tickets.UpdateTicketStatus(ctx, owner, started.ID, primary.UpdateStatusRequest{Status: "unclaimed"})
	requireKind(t, err, apperr.KindInternal)

	assert.Equal(t, []string{"unclaimed>in_progress:standard"}, f.metrics.transitions)
	assert.Equal(t, 1, f.metrics.claims["won"])
	assert.Zero(t, f.metrics.claims["conflict"])

	// The rolled back claim left the ticket claimable.
	f.store.failLedger(false)
	got, err := f.tickets.ClaimTicket(ctx, owner, claimable.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, 2, f.metrics.claims["won"])
}

func TestClaimTicket_AgentSessionAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	agent := f.agentScope(t, owner, access.KeyRoleAgent, "worker-7")
	tk := f.createTicket(t, owner, "Claim me", "")

	claimed, err := f.tickets.ClaimTicket(ctx, agent, tk.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	assert.Equal(t, "session:worker-7", *claimed.OwnerID)
}

func TestClaimTicket_ExplicitOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Claim me", "")

	_, err := f.tickets.ClaimTicket(ctx, owner, tk.ID, primary.ClaimTicketRequest{OwnerID: "u-2", OwnerType: "robot"})
	requireKind(t, err, apperr.KindValidation)

	claimed, err := f.tickets.ClaimTicket(ctx, owner, tk.ID, primary.ClaimTicketRequest{OwnerID: "u-2", OwnerType: "user", OwnerDisplayName: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", *claimed.OwnerID)
	assert.Equal(t, "Bea", *claimed.OwnerDisplayName)
}

func TestClaimTicket_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t, withPath(filepath.Join(t.TempDir(), "kanban.db")))
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Race", "")

	const claimants = 8
	agents := make([]primary.Scope, claimants)
	for i := range agents {
		agents[i] = f.agentScope(t, owner, access.KeyRoleAgent, "")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		errs    []error
	)
	start := make(chan struct{})
	for _, agent := range agents {
		wg.Add(1)
		go func(scope primary.Scope) {
			defer wg.Done()
			<-start
			claimed, err := f.tickets.ClaimTicket(ctx, scope, tk.ID, primary.ClaimTicketRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			winners = append(winners, *claimed.OwnerID)
		}(agent)
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, errs, claimants-1)
	for _, err := range errs {
		e := requireKind(t, err, apperr.KindConflict)
		assert.Equal(t, "in_progress", e.Details["currentStatus"])
	}

	got, err := f.tickets.GetTicket(ctx, owner, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], *got.OwnerID)
}

func TestCompleteTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	parent := f.createTicket(t, owner, "Parent", "")
	child := f.createTicket(t, owner, "Child", parent.ID)

	_, err := f.tickets.CompleteTicket(ctx, owner, child.ID)
	e := requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, ticket.NotCompletableMessage, e.Message)
	assert.Equal(t, "unclaimed", e.Details["currentStatus"])

	_, err = f.tickets.ClaimTicket(ctx, owner, child.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)

	done, err := f.tickets.CompleteTicket(ctx, owner, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", done.Status)
	assert.Equal(t, "u-owner", *done.OwnerID, "completing keeps the owner")

	got, err := f.tickets.GetTicket(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ChildDoneCount)
	assert.Contains(t, f.metrics.transitions, "in_progress>done:standard")
}

func TestUpdateTicketStatus_AgentReasonRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	agent := f.agentScope(t, owner, access.KeyRoleAgent, "")
	tk := f.createTicket(t, owner, "Reopen", "")

	_, err := f.tickets.UpdateTicketStatus(ctx, owner, tk.ID, primary.UpdateStatusRequest{Status: "done"})
	require.NoError(t, err, "humans skip states without a reason")

	_, err = f.tickets.UpdateTicketStatus(ctx, agent, tk.ID, primary.UpdateStatusRequest{Status: "unclaimed", Reason: "   "})
	e := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, ticket.ReasonRequiredMessage, e.Message)

	reopened, err := f.tickets.UpdateTicketStatus(ctx, agent, tk.ID, primary.UpdateStatusRequest{Status: "unclaimed", Reason: " regression found "})
	require.NoError(t, err)
	assert.Equal(t, "unclaimed", reopened.Status)

	events, err := f.tickets.ListActivity(ctx, owner, tk.ID, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	var data map[string]string
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, "regression found", data["reason"])
	assert.Equal(t, "non_standard", data["class"])

	_, err = f.tickets.UpdateTicketStatus(ctx, agent, tk.ID, primary.UpdateStatusRequest{Status: "in_progress"})
	require.NoError(t, err, "standard transitions need no reason")
}

func TestUpdateTicketStatus_ClearsOwnerOnUnclaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	parent := f.createTicket(t, owner, "Parent", "")
	tk := f.createTicket(t, owner, "Child", parent.ID)

	_, err := f.tickets.ClaimTicket(ctx, owner, tk.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	_, err = f.tickets.CompleteTicket(ctx, owner, tk.ID)
	require.NoError(t, err)

	got, err := f.tickets.UpdateTicketStatus(ctx, owner, tk.ID, primary.UpdateStatusRequest{Status: "unclaimed"})
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.Nil(t, got.OwnerType)

	p, err := f.tickets.GetTicket(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ChildDoneCount)
}

func TestUpdateTicketStatus_MoveWithinColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Move", "")

	order := 42.5
	got, err := f.tickets.UpdateTicketStatus(ctx, owner, tk.ID, primary.UpdateStatusRequest{Status: "unclaimed", Order: &order})
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.Order)
	assert.Equal(t, "unclaimed", got.Status)

	_, err = f.tickets.UpdateTicketStatus(ctx, owner, tk.ID, primary.UpdateStatusRequest{Status: "blocked"})
	requireKind(t, err, apperr.KindValidation)
}

func TestUpdateTicket_RejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	a := f.createTicket(t, owner, "A", "")
	b := f.createTicket(t, owner, "B", a.ID)
	c := f.createTicket(t, owner, "C", b.ID)

	for _, target := range []string{a.ID, c.ID} {
		_, err := f.tickets.UpdateTicket(ctx, owner, a.ID, primary.UpdateTicketRequest{ParentID: primary.SetTo(target)})
		e := requireKind(t, err, apperr.KindValidation)
		assert.Equal(t, ticket.CycleMessage, e.Message)
	}

	got, err := f.tickets.GetTicket(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "rejected reparent leaves the ticket unchanged")
	assert.Equal(t, 1, got.ChildCount)
}

func TestUpdateTicket_ReparentMovesCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	oldParent := f.createTicket(t, owner, "Old", "")
	newParent := f.createTicket(t, owner, "New", "")
	child := f.createTicket(t, owner, "Child", oldParent.ID)

	_, err := f.tickets.UpdateTicketStatus(ctx, owner, child.ID, primary.UpdateStatusRequest{Status: "done"})
	require.NoError(t, err)

	moved, err := f.tickets.UpdateTicket(ctx, owner, child.ID, primary.UpdateTicketRequest{ParentID: primary.SetTo(newParent.ID)})
	require.NoError(t, err)
	assert.Equal(t, newParent.ID, *moved.ParentID)

	oldGot, err := f.tickets.GetTicket(ctx, owner, oldParent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, oldGot.ChildCount)
	assert.Equal(t, 0, oldGot.ChildDoneCount)

	newGot, err := f.tickets.GetTicket(ctx, owner, newParent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, newGot.ChildCount)
	assert.Equal(t, 1, newGot.ChildDoneCount)

	rooted, err := f.tickets.UpdateTicket(ctx, owner, child.ID, primary.UpdateTicketRequest{ParentID: primary.OptionalID{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, rooted.ParentID)
}

func TestUpdateTicket_LogsChangedFieldNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Title", "")

	title, archived := "New title", true
	got, err := f.tickets.UpdateTicket(ctx, owner, tk.ID, primary.UpdateTicketRequest{Title: &title, Archived: &archived})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.True(t, got.Archived)

	events, err := f.tickets.ListActivity(ctx, owner, tk.ID, 1)
	require.NoError(t, err)
	var data struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, []string{"title", "archived"}, data.Fields)

	blank := " "
	_, err = f.tickets.UpdateTicket(ctx, owner, tk.ID, primary.UpdateTicketRequest{Title: &blank})
	requireKind(t, err, apperr.KindValidation)
}

func TestAssignTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Assign", "")

	_, err := f.tickets.AssignTicket(ctx, owner, tk.ID, primary.AssignTicketRequest{OwnerID: "u-2", OwnerType: "user"})
	e := requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, "unclaimed", e.Details["currentStatus"])

	_, err = f.tickets.UpdateTicketStatus(ctx, owner, tk.ID, primary.UpdateStatusRequest{Status: "in_progress"})
	require.NoError(t, err)

	_, err = f.tickets.AssignTicket(ctx, owner, tk.ID, primary.AssignTicketRequest{OwnerID: "u-2", OwnerType: "alien"})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.tickets.AssignTicket(ctx, owner, tk.ID, primary.AssignTicketRequest{OwnerType: "user"})
	requireKind(t, err, apperr.KindValidation)

	got, err := f.tickets.AssignTicket(ctx, owner, tk.ID, primary.AssignTicketRequest{OwnerID: "u-2", OwnerType: "user", OwnerDisplayName: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", *got.OwnerID)
	assert.Equal(t, "in_progress", got.Status, "assign never changes status")
}

func TestUnassignTicket_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	tk := f.createTicket(t, owner, "Unassign", "")

	got, err := f.tickets.UnassignTicket(ctx, owner, tk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)

	_, err = f.tickets.ClaimTicket(ctx, owner, tk.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)
	got, err = f.tickets.UnassignTicket(ctx, owner, tk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, "in_progress", got.Status)

	_, err = f.tickets.UnassignTicket(ctx, owner, tk.ID)
	require.NoError(t, err)

	events, err := f.tickets.ListActivity(ctx, owner, tk.ID, 0)
	require.NoError(t, err)
	var unassigns int
	for _, ev := range events {
		if ev.Type != secondary.ActivityTicketAssignmentChanged {
			continue
		}
		var data map[string]any
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		if data["to"] == nil {
			unassigns++
		}
	}
	assert.Equal(t, 1, unassigns, "repeated unassign records nothing")
}

func TestDeleteTicket_RemovesSubtree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	grandparent := f.createTicket(t, owner, "Top", "")
	root := f.createTicket(t, owner, "Root", grandparent.ID)
	c1 := f.createTicket(t, owner, "Child 1", root.ID)
	c2 := f.createTicket(t, owner, "Child 2", root.ID)
	gc := f.createTicket(t, owner, "Grandchild", c1.ID)
	_, err := f.tickets.AddComment(ctx, owner, c1.ID, "note")
	require.NoError(t, err)

	result, err := f.tickets.DeleteTicket(ctx, owner, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, c1.ID, c2.ID, gc.ID}, result.DeletedIDs)
	assert.Equal(t, root.ID, result.DeletedIDs[0])

	for _, id := range result.DeletedIDs {
		_, err := f.tickets.GetTicket(ctx, owner, id)
		requireKind(t, err, apperr.KindNotFound)
	}

	top, err := f.tickets.GetTicket(ctx, owner, grandparent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, top.ChildCount)

	rootEvents, err := f.store.Repos().Activity.ListByTicket(ctx, root.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, secondary.ActivityTicketDeleted, rootEvents[0].Type, "activity outlives the ticket")

	childEvents, err := f.store.Repos().Activity.ListByTicket(ctx, c1.ID, 0)
	require.NoError(t, err)
	for _, ev := range childEvents {
		assert.NotEqual(t, secondary.ActivityTicketDeleted, ev.Type, "cascaded deletes are elided by default")
	}
}

func TestDeleteTicket_LogsCascadedDeletesWhenEnabled(t *testing.T) {
	f := newFixture(t, withCascadedDeleteLogging())
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	root := f.createTicket(t, owner, "Root", "")
	child := f.createTicket(t, owner, "Child", root.ID)

	_, err := f.tickets.DeleteTicket(ctx, owner, root.ID)
	require.NoError(t, err)

	events, err := f.store.Repos().Activity.ListByTicket(ctx, child.ID, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, secondary.ActivityTicketDeleted, events[0].Type)
}

func TestReconcileTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	parent := f.createTicket(t, owner, "Parent", "")
	f.createTicket(t, owner, "Child 1", parent.ID)
	done := f.createTicket(t, owner, "Child 2", parent.ID)
	_, err := f.tickets.UpdateTicketStatus(ctx, owner, done.ID, primary.UpdateStatusRequest{Status: "done"})
	require.NoError(t, err)

	require.NoError(t, f.store.Repos().Tickets.SetCounters(ctx, parent.ID, 9, 7))

	got, err := f.tickets.ReconcileTicket(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ChildCount)
	assert.Equal(t, 1, got.ChildDoneCount)
}

func TestListTickets_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	parent := f.createTicket(t, owner, "Parent", "")
	child := f.createTicket(t, owner, "Child", parent.ID)
	archived := f.createTicket(t, owner, "Archived", "")
	yes := true
	_, err := f.tickets.UpdateTicket(ctx, owner, archived.ID, primary.UpdateTicketRequest{Archived: &yes})
	require.NoError(t, err)
	_, err = f.tickets.ClaimTicket(ctx, owner, child.ID, primary.ClaimTicketRequest{})
	require.NoError(t, err)

	ids := func(list []*primary.Ticket) []string {
		out := make([]string, 0, len(list))
		for _, tk := range list {
			out = append(out, tk.ID)
		}
		return out
	}

	all, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{parent.ID, child.ID}, ids(all))

	roots, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{ParentID: "root", Archived: "all"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{parent.ID, archived.ID}, ids(roots))

	children, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{ParentID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(children))

	inProgress, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(inProgress))

	mine, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{OwnerID: "u-owner"})
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(mine))

	onlyArchived, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{Archived: "true"})
	require.NoError(t, err)
	assert.Equal(t, []string{archived.ID}, ids(onlyArchived))

	summary, err := f.tickets.ListTickets(ctx, owner, primary.TicketFilters{Summary: true})
	require.NoError(t, err)
	for _, tk := range summary {
		assert.Nil(t, tk.Description)
	}

	_, err = f.tickets.ListTickets(ctx, owner, primary.TicketFilters{Status: "blocked"})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.tickets.ListTickets(ctx, owner, primary.TicketFilters{Archived: "maybe"})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.tickets.ListTickets(ctx, owner, primary.TicketFilters{ParentID: "missing"})
	requireKind(t, err, apperr.KindNotFound)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Acme", "u-owner")
	agent := f.agentScope(t, owner, access.KeyRoleAgent, "")
	tk := f.createTicket(t, owner, "Discuss", "")

	_, err := f.tickets.AddComment(ctx, owner, tk.ID, "  ")
	e := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "Comment body is required", e.Message)

	_, err = f.tickets.AddComment(ctx, owner, tk.ID, "first")
	require.NoError(t, err)
	_, err = f.tickets.AddComment(ctx, agent, tk.ID, "second")
	require.NoError(t, err)

	comments, err := f.tickets.ListComments(ctx, owner, tk.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "user", string(comments[0].Author.Type))
	assert.Equal(t, "agent", string(comments[1].Author.Type))
	assert.Equal(t, "apikey:"+agent.Principal.APIKeyID, comments[1].Author.ID)
}

func TestTicketOperations_HideOtherWorkspaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerA := f.newWorkspace(t, "Alpha", "u-a")
	ownerB := f.newWorkspace(t, "Beta", "u-b")
	agentA := f.agentScope(t, ownerA, access.KeyRoleAdmin, "")
	ticketB := f.createTicket(t, ownerB, "Secret", "")

	// A key pointed at its own workspace but a foreign id, and a key pointed
	// at the foreign workspace, must both see not found.
	scopes := map[string]primary.Scope{
		"own workspace":     agentA,
		"foreign workspace": {Principal: agentA.Principal, WorkspaceID: ownerB.WorkspaceID},
		"non-member user":   {Principal: sessionPrincipal("u-a"), WorkspaceID: ownerB.WorkspaceID},
	}

	for name, scope := range scopes {
		t.Run(name, func(t *testing.T) {
			ops := map[string]func() error{
				"get": func() error { _, err := f.tickets.GetTicket(ctx, scope, ticketB.ID); return err },
				"update": func() error {
					title := "x"
					_, err := f.tickets.UpdateTicket(ctx, scope, ticketB.ID, primary.UpdateTicketRequest{Title: &title})
					return err
				},
				"claim": func() error {
					_, err := f.tickets.ClaimTicket(ctx, scope, ticketB.ID, primary.ClaimTicketRequest{})
					return err
				},
				"complete": func() error { _, err := f.tickets.CompleteTicket(ctx, scope, ticketB.ID); return err },
				"status": func() error {
					_, err := f.tickets.UpdateTicketStatus(ctx, scope, ticketB.ID, primary.UpdateStatusRequest{Status: "done", Reason: "x"})
					return err
				},
				"unassign":  func() error { _, err := f.tickets.UnassignTicket(ctx, scope, ticketB.ID); return err },
				"delete":    func() error { _, err := f.tickets.DeleteTicket(ctx, scope, ticketB.ID); return err },
				"reconcile": func() error { _, err := f.tickets.ReconcileTicket(ctx, scope, ticketB.ID); return err },
				"comment":   func() error { _, err := f.tickets.AddComment(ctx, scope, ticketB.ID, "hi"); return err },
				"comments":  func() error { _, err := f.tickets.ListComments(ctx, scope, ticketB.ID); return err },
				"activity":  func() error { _, err := f.tickets.ListActivity(ctx, scope, ticketB.ID, 0); return err },
			}
			for op, call := range ops {
				e := requireKind(t, call(), apperr.KindNotFound)
				assert.Equal(t, apperr.NotFoundMessage, e.Message, op)
			}
		})
	}

	got, err := f.tickets.GetTicket(ctx, ownerB, ticketB.ID)
	require.NoError(t, err)
	assert.Equal(t, "unclaimed", got.Status)
}
