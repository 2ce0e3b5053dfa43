// Package visibility decides, per viewer and per document, whether access is
// permitted, downloadable and watermark-required. Resolve is a pure function:
// callers assemble the viewer context from storage and record the outcome in
// the audit log themselves.
package visibility

import (
	"strings"
	"time"

	"github.com/dealbridge/dealroom/internal/models"
)

// Policy is the value-type projection of a document's access rule.
type Policy struct {
	Visibility        models.Visibility
	DownloadBlocked   bool
	WatermarkRequired bool
	Grants            []string // e-mail grants, meaningful for CUSTOM only
}

// ViewerContext bundles everything Resolve needs to know about the viewer.
type ViewerContext struct {
	// RoomRole is the viewer's membership role in the containing data room,
	// or empty when the viewer is not a member.
	RoomRole models.RoomRole

	// NDAStatus is the status of the viewer's NDA for the room's listing, or
	// empty when none exists.
	NDAStatus    models.NDAStatus
	NDAExpiresAt time.Time

	HasTransaction bool
	Email          string

	// Now anchors the advisory NDA expiry check. Zero means time.Now().
	Now time.Time
}

// Decision is the outcome of a visibility resolution.
type Decision struct {
	CanView           bool `json:"can_view"`
	CanDownload       bool `json:"can_download"`
	RequiresWatermark bool `json:"requires_watermark"`
}

// Resolve evaluates the policy against the viewer context. First match wins:
// room managers bypass policy, then the policy's own visibility rule applies.
func Resolve(policy Policy, viewer ViewerContext) Decision {
	canView := false

	if viewer.RoomRole.Manages() {
		canView = true
	} else {
		switch policy.Visibility {
		case models.VisibilityOwnerOnly:
			canView = false
		case models.VisibilityAll:
			canView = true
		case models.VisibilityNDAOnly:
			canView = hasUsableNDA(viewer)
		case models.VisibilityTransactionOnly:
			canView = viewer.HasTransaction
		case models.VisibilityCustom:
			canView = emailGranted(policy.Grants, viewer.Email)
		default:
			// Unknown policies deny. Mutation guards keep them out of storage,
			// so this branch only fires on hand-built values.
			canView = false
		}
	}

	return Decision{
		CanView:           canView,
		CanDownload:       canView && !policy.DownloadBlocked,
		RequiresWatermark: canView && policy.WatermarkRequired,
	}
}

func hasUsableNDA(viewer ViewerContext) bool {
	if viewer.NDAStatus != models.NDAApproved && viewer.NDAStatus != models.NDASigned {
		return false
	}

	now := viewer.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return viewer.NDAExpiresAt.IsZero() || !now.After(viewer.NDAExpiresAt)
}

func emailGranted(grants []string, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, grant := range grants {
		if strings.ToLower(strings.TrimSpace(grant)) == email {
			return true
		}
	}
	return false
}
