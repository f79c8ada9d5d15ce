package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/apikey"
	"github.com/example/kanban/internal/ports/primary"
)

func TestCreateKey_ReturnsSecretOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Alpha", "u-owner")

	created, err := f.keys.CreateKey(ctx, owner, primary.CreateAPIKeyRequest{Name: " ci bot "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Secret, apikey.SecretPrefix))
	assert.True(t, apikey.HasValidFormat(created.Secret))
	assert.Equal(t, "ci bot", created.Name)
	assert.Equal(t, access.KeyRoleAgent, created.Role, "role defaults to agent")

	stored, err := f.store.Repos().APIKeys.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, apikey.HashSecret(created.Secret), stored.KeyHash)
	assert.NotContains(t, stored.KeyHash, created.Secret)

	keys, err := f.keys.ListKeys(ctx, owner)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, created.ID, keys[0].ID)

	_, err = f.keys.CreateKey(ctx, owner, primary.CreateAPIKeyRequest{Name: "x", Role: "root"})
	requireKind(t, err, apperr.KindValidation)
	_, err = f.keys.CreateKey(ctx, owner, primary.CreateAPIKeyRequest{Name: " "})
	requireKind(t, err, apperr.KindValidation)
}

func TestKeyManagement_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Alpha", "u-owner")
	agent := f.agentScope(t, owner, access.KeyRoleAgent, "")

	_, err := f.keys.ListKeys(ctx, agent)
	e := requireKind(t, err, apperr.KindForbidden)
	assert.Equal(t, access.AdminKeyRequiredMessage, e.Message)

	_, err = f.keys.CreateKey(ctx, agent, primary.CreateAPIKeyRequest{Name: "sneaky", Role: access.KeyRoleAdmin})
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.workspaces.AddMember(ctx, owner, primary.AddMemberRequest{UserID: "u-member"})
	require.NoError(t, err)
	member := primary.Scope{Principal: sessionPrincipal("u-member"), WorkspaceID: owner.WorkspaceID}
	_, err = f.keys.ListKeys(ctx, member)
	requireKind(t, err, apperr.KindForbidden)
}

func TestKeySelfProtection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.newWorkspace(t, "Alpha", "u-owner")
	admin := f.agentScope(t, owner, access.KeyRoleAdmin, "")
	other := f.agentScope(t, owner, access.KeyRoleAgent, "")
	selfID := admin.Principal.APIKeyID

	err := f.keys.DeleteKey(ctx, admin, selfID)
	e := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, apikey.SelfDeleteMessage, e.Message)

	_, err = f.keys.UpdateKeyRole(ctx, admin, selfID, access.KeyRoleAgent)
	e = requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, apikey.SelfDemoteMessage, e.Message)

	same, err := f.keys.UpdateKeyRole(ctx, admin, selfID, access.KeyRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, access.KeyRoleAdmin, same.Role)

	promoted, err := f.keys.UpdateKeyRole(ctx, admin, other.Principal.APIKeyID, access.KeyRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, access.KeyRoleAdmin, promoted.Role)

	require.NoError(t, f.keys.DeleteKey(ctx, admin, other.Principal.APIKeyID))
	err = f.keys.DeleteKey(ctx, admin, other.Principal.APIKeyID)
	requireKind(t, err, apperr.KindNotFound)

	require.NoError(t, f.keys.DeleteKey(ctx, owner, selfID), "a session may revoke any key")
}

func TestKeyManagement_HidesOtherWorkspaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerA := f.newWorkspace(t, "Alpha", "u-a")
	ownerB := f.newWorkspace(t, "Beta", "u-b")
	keyB := f.agentScope(t, ownerB, access.KeyRoleAgent, "")

	err := f.keys.DeleteKey(ctx, ownerA, keyB.Principal.APIKeyID)
	requireKind(t, err, apperr.KindNotFound)

	_, err = f.keys.UpdateKeyRole(ctx, ownerA, keyB.Principal.APIKeyID, access.KeyRoleAdmin)
	requireKind(t, err, apperr.KindNotFound)
}
