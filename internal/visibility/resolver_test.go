package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/models"
)

func TestManagersBypassPolicy(t *testing.T) {
	policy := Policy{Visibility: models.VisibilityOwnerOnly, DownloadBlocked: true, WatermarkRequired: true}

	for _, role := range []models.RoomRole{models.RoomOwner, models.RoomEditor} {
		decision := Resolve(policy, ViewerContext{RoomRole: role})
		require.True(t, decision.CanView, "role %s", role)
		require.False(t, decision.CanDownload, "download stays blocked for %s", role)
		require.True(t, decision.RequiresWatermark, "role %s", role)
	}
}

func TestOwnerOnlyDeniesEveryoneElse(t *testing.T) {
	policy := Policy{Visibility: models.VisibilityOwnerOnly}

	decision := Resolve(policy, ViewerContext{
		RoomRole:  models.RoomViewer,
		NDAStatus: models.NDASigned,
	})
	require.False(t, decision.CanView)
	require.False(t, decision.CanDownload)
	require.False(t, decision.RequiresWatermark)
}

func TestAllVisibility(t *testing.T) {
	decision := Resolve(Policy{Visibility: models.VisibilityAll}, ViewerContext{})
	require.True(t, decision.CanView)
	require.True(t, decision.CanDownload)
}

func TestNDAOnly(t *testing.T) {
	policy := Policy{Visibility: models.VisibilityNDAOnly}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// No NDA at all.
	decision := Resolve(policy, ViewerContext{Now: now})
	require.False(t, decision.CanView)
	require.False(t, decision.CanDownload)

	// Pending is not enough.
	decision = Resolve(policy, ViewerContext{NDAStatus: models.NDAPending, Now: now})
	require.False(t, decision.CanView)

	// Approved and signed within the validity window grant access.
	for _, status := range []models.NDAStatus{models.NDAApproved, models.NDASigned} {
		decision = Resolve(policy, ViewerContext{
			NDAStatus:    status,
			NDAExpiresAt: now.Add(24 * time.Hour),
			Now:          now,
		})
		require.True(t, decision.CanView, "status %s", status)
	}

	// Expiry is evaluated at resolve time.
	decision = Resolve(policy, ViewerContext{
		NDAStatus:    models.NDAApproved,
		NDAExpiresAt: now.Add(-time.Minute),
		Now:          now,
	})
	require.False(t, decision.CanView)

	// Rejected never grants access.
	decision = Resolve(policy, ViewerContext{NDAStatus: models.NDARejected, Now: now})
	require.False(t, decision.CanView)
}

func TestTransactionOnly(t *testing.T) {
	policy := Policy{Visibility: models.VisibilityTransactionOnly}

	require.False(t, Resolve(policy, ViewerContext{}).CanView)
	require.True(t, Resolve(policy, ViewerContext{HasTransaction: true}).CanView)
}

func TestCustomGrantsAreCaseInsensitive(t *testing.T) {
	policy := Policy{
		Visibility: models.VisibilityCustom,
		Grants:     []string{"Advisor@Firm.example", "cfo@buyer.example"},
	}

	require.True(t, Resolve(policy, ViewerContext{Email: "advisor@firm.example"}).CanView)
	require.True(t, Resolve(policy, ViewerContext{Email: " CFO@buyer.example "}).CanView)
	require.False(t, Resolve(policy, ViewerContext{Email: "stranger@buyer.example"}).CanView)
	require.False(t, Resolve(policy, ViewerContext{Email: ""}).CanView)
}

func TestDownloadBlockedAndWatermarkDerivation(t *testing.T) {
	policy := Policy{Visibility: models.VisibilityAll, DownloadBlocked: true, WatermarkRequired: true}
	decision := Resolve(policy, ViewerContext{})

	require.True(t, decision.CanView)
	require.False(t, decision.CanDownload)
	require.True(t, decision.RequiresWatermark)

	// Denied viewers never get a watermark flag either.
	denied := Resolve(Policy{Visibility: models.VisibilityOwnerOnly, WatermarkRequired: true}, ViewerContext{})
	require.False(t, denied.RequiresWatermark)
}

// Resolve must be total: every policy/viewer combination yields exactly one
// decision and canDownload implies canView.
func TestResolveInvariants(t *testing.T) {
	visibilities := []models.Visibility{
		models.VisibilityAll,
		models.VisibilityOwnerOnly,
		models.VisibilityNDAOnly,
		models.VisibilityTransactionOnly,
		models.VisibilityCustom,
		models.Visibility("bogus"),
	}
	roles := []models.RoomRole{"", models.RoomViewer, models.RoomEditor, models.RoomOwner}
	ndaStatuses := []models.NDAStatus{"", models.NDAPending, models.NDAApproved, models.NDARejected, models.NDASigned}

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, vis := range visibilities {
		for _, role := range roles {
			for _, status := range ndaStatuses {
				for _, hasTxn := range []bool{false, true} {
					for _, blocked := range []bool{false, true} {
						policy := Policy{
							Visibility:      vis,
							DownloadBlocked: blocked,
							Grants:          []string{"grantee@example.com"},
						}
						viewer := ViewerContext{
							RoomRole:       role,
							NDAStatus:      status,
							NDAExpiresAt:   now.Add(time.Hour),
							HasTransaction: hasTxn,
							Email:          "grantee@example.com",
							Now:            now,
						}

						first := Resolve(policy, viewer)
						second := Resolve(policy, viewer)
						require.Equal(t, first, second)

						if first.CanDownload {
							require.True(t, first.CanView)
							require.False(t, policy.DownloadBlocked)
						}
						if first.RequiresWatermark {
							require.True(t, first.CanView)
						}
					}
				}
			}
		}
	}
}
