package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/models"
	apperrors "github.com/dealbridge/dealroom/pkg/errors"
)

func TestAuditRecordAndList(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env.audit.Record(ctx, AuditEntry{
			ActorID:    seller.ID,
			Action:     "document.view",
			TargetType: "document",
			TargetID:   "doc-1",
			DataRoomID: room.ID,
			Result:     "allow",
			Meta:       map[string]any{"attempt": i},
		})
	}
	env.audit.Record(ctx, AuditEntry{
		ActorID:    seller.ID,
		Action:     "document.download",
		TargetType: "document",
		TargetID:   "doc-1",
		DataRoomID: room.ID,
		Result:     "deny",
	})

	logs, total, err := env.audit.List(ctx, actorFor(seller), AuditListOptions{
		Filters: AuditFilters{DataRoomID: room.ID},
	})
	require.NoError(t, err)
	// room.create from setup plus the four entries above.
	require.EqualValues(t, 5, total)
	require.Len(t, logs, 5)

	logs, total, err = env.audit.List(ctx, actorFor(seller), AuditListOptions{
		Filters: AuditFilters{DataRoomID: room.ID, Action: "document.view"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	for _, row := range logs {
		require.Equal(t, "document.view", row.Action)
		require.NotNil(t, row.ActorID)
		require.Equal(t, seller.ID, *row.ActorID)
	}
}

func TestAuditListPagination(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		env.audit.Record(ctx, AuditEntry{
			ActorID:    seller.ID,
			Action:     "document.view",
			TargetType: "document",
			TargetID:   "doc-1",
			DataRoomID: room.ID,
			Result:     "allow",
		})
	}

	page1, total, err := env.audit.List(ctx, actorFor(seller), AuditListOptions{
		Page:     1,
		PageSize: 5,
		Filters:  AuditFilters{DataRoomID: room.ID, Action: "document.view"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
	require.Len(t, page1, 5)

	page2, _, err := env.audit.List(ctx, actorFor(seller), AuditListOptions{
		Page:     2,
		PageSize: 5,
		Filters:  AuditFilters{DataRoomID: room.ID, Action: "document.view"},
	})
	require.NoError(t, err)
	require.Len(t, page2, 2)
}

func TestAuditListAuthorization(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	viewer := env.createUser(t, "viewer@example.com", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	_, err := env.rooms.AddMember(ctx, actorFor(seller), room.ID, AddMemberInput{UserID: viewer.ID, Role: models.RoomViewer})
	require.NoError(t, err)

	// Room viewers cannot read the trail.
	_, _, err = env.audit.List(ctx, actorFor(viewer), AuditListOptions{
		Filters: AuditFilters{DataRoomID: room.ID},
	})
	require.Equal(t, "FORBIDDEN", apperrors.FromError(err).Code)

	// Privileged platform roles can.
	_, _, err = env.audit.List(ctx, actorFor(admin), AuditListOptions{
		Filters: AuditFilters{DataRoomID: room.ID},
	})
	require.NoError(t, err)

	// The room filter is mandatory.
	_, _, err = env.audit.List(ctx, actorFor(seller), AuditListOptions{})
	require.Equal(t, "BAD_REQUEST", apperrors.FromError(err).Code)
}

func TestAuditRecordNeverPanicsOnBadEntry(t *testing.T) {
	env := newTestEnv(t)

	// Missing action and result: logged and dropped, nothing persisted.
	env.audit.Record(context.Background(), AuditEntry{TargetID: "x"})

	var count int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAuditCleanupOlderThan(t *testing.T) {
	env := newTestEnv(t)

	old := models.AuditLog{Action: "document.view", TargetType: "document", TargetID: "doc-1", Result: "allow"}
	require.NoError(t, env.db.Create(&old).Error)
	require.NoError(t, env.db.Model(&old).
		Update("created_at", time.Now().UTC().AddDate(0, 0, -400)).Error)

	recent := models.AuditLog{Action: "document.view", TargetType: "document", TargetID: "doc-2", Result: "allow"}
	require.NoError(t, env.db.Create(&recent).Error)

	removed, err := env.audit.CleanupOlderThan(context.Background(), 365)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	_, err = env.audit.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
