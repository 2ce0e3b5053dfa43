package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/readiness"
)

func TestReadinessComputeEmptyRoom(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	result, err := env.readiness.Compute(context.Background(), room.ID)
	require.NoError(t, err)

	require.Equal(t, 0, result.TotalScore)
	require.NotZero(t, result.MandatoryTotal)
	require.Zero(t, result.MandatorySatisfied)
	require.Len(t, result.Gaps, result.MandatoryTotal)
	for _, status := range result.Requirements {
		require.Equal(t, readiness.StatusMissing, status.Status)
	}
}

func TestReadinessReflectsUploads(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	env.uploadDocument(t, seller, room, "skatt-skattekonto", nil, false)

	result, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.MandatorySatisfied)
	require.Positive(t, result.TotalScore)

	var found bool
	for _, status := range result.Requirements {
		if status.RequirementID == "skatt-skattekonto" {
			found = true
			require.Equal(t, readiness.StatusUploaded, status.Status)
		}
	}
	require.True(t, found)
}

func TestReadinessCacheAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	before, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Zero(t, before.MandatorySatisfied)

	// Writing documents directly leaves the cached result untouched.
	reqID := "skatt-skattekonto"
	doc := models.Document{
		DataRoomID:    room.ID,
		RequirementID: &reqID,
		Category:      "skatt",
		Title:         "Skattekontoutdrag",
		FileKey:       "rooms/" + room.ID + "/skattekonto.pdf",
		Status:        models.DocumentUploaded,
	}
	require.NoError(t, env.db.Create(&doc).Error)

	cached, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Zero(t, cached.MandatorySatisfied)

	// Invalidation forces a fresh pass over the full set.
	env.readiness.Invalidate(ctx, room.ID)
	fresh, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fresh.MandatorySatisfied)
}

func TestReadinessServiceUploadsInvalidate(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	ctx := context.Background()
	_, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)

	// The document service invalidates on upload, so the next compute sees it.
	doc := env.uploadDocument(t, seller, room, "it-systemoversikt", nil, false)
	result, err := env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.MandatorySatisfied)

	// Same on delete.
	require.NoError(t, env.documents.Delete(ctx, actorFor(seller), doc.ID))
	result, err = env.readiness.Compute(ctx, room.ID)
	require.NoError(t, err)
	require.Zero(t, result.MandatorySatisfied)
}

func TestReadinessIgnoresAdHocDocuments(t *testing.T) {
	env := newTestEnv(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Bakery AB")
	room := env.createRoom(t, seller, listing)

	env.uploadDocument(t, seller, room, "", nil, false)

	result, err := env.readiness.Compute(context.Background(), room.ID)
	require.NoError(t, err)
	require.Zero(t, result.MandatorySatisfied)
	require.Equal(t, 0, result.TotalScore)
}
