// Package readiness scores a seller's uploaded document set against the
// due-diligence requirement catalog. Compute is pure and recomputes from the
// full document set every time, so concurrent uploads can at worst produce a
// slightly stale score, never a corrupted one.
package readiness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dealbridge/dealroom/internal/models"
)

// Status classifies one requirement against the uploaded set.
type Status string

// Requirement statuses in escalation order.
const (
	StatusMissing    Status = "missing"
	StatusIncomplete Status = "incomplete"
	StatusUploaded   Status = "uploaded"
	StatusVerified   Status = "verified"
)

// Satisfied reports whether the status counts toward the readiness score.
func (s Status) Satisfied() bool {
	return s == StatusUploaded || s == StatusVerified
}

// DocumentMeta is the projection of an uploaded document the engine needs.
type DocumentMeta struct {
	RequirementID string
	Category      models.RequirementCategory
	MimeType      string
	PeriodYear    *int
	Signed        bool
	Verified      bool
}

// RequirementStatus is the per-requirement evaluation outcome.
type RequirementStatus struct {
	RequirementID string                     `json:"requirement_id"`
	Category      models.RequirementCategory `json:"category"`
	Title         string                     `json:"title"`
	Mandatory     bool                       `json:"mandatory"`
	Status        Status                     `json:"status"`
	DocCount      int                        `json:"doc_count"`
	YearsCovered  []int                      `json:"years_covered,omitempty"`
	Issues        []string                   `json:"issues,omitempty"`
}

// Gap describes a mandatory requirement that is not yet satisfied.
type Gap struct {
	RequirementID string                     `json:"requirement_id"`
	Category      models.RequirementCategory `json:"category"`
	Title         string                     `json:"title"`
	Reason        string                     `json:"reason"`
}

// Result is the aggregate readiness evaluation for one data room.
type Result struct {
	TotalScore         int                                `json:"total_score"`
	CategoryScores     map[models.RequirementCategory]int `json:"category_scores"`
	Requirements       []RequirementStatus                `json:"requirements"`
	Gaps               []Gap                              `json:"gaps"`
	MandatoryTotal     int                                `json:"mandatory_total"`
	MandatorySatisfied int                                `json:"mandatory_satisfied"`
}

// Compute evaluates every catalog requirement against the uploaded set. The
// result depends only on the inputs: permuting docs changes nothing, and the
// requirement order of the output follows the catalog order of reqs.
func Compute(docs []DocumentMeta, reqs []models.Requirement) Result {
	byRequirement := make(map[string][]DocumentMeta, len(reqs))
	for _, doc := range docs {
		if doc.RequirementID == "" {
			continue
		}
		byRequirement[doc.RequirementID] = append(byRequirement[doc.RequirementID], doc)
	}

	result := Result{
		CategoryScores: make(map[models.RequirementCategory]int),
		Requirements:   make([]RequirementStatus, 0, len(reqs)),
	}

	type tally struct{ total, satisfied int }
	categories := make(map[models.RequirementCategory]*tally)

	for _, req := range reqs {
		status := evaluate(req, byRequirement[req.ID])
		result.Requirements = append(result.Requirements, status)

		if _, ok := categories[req.Category]; !ok {
			categories[req.Category] = &tally{}
		}

		if !req.Mandatory {
			continue
		}

		result.MandatoryTotal++
		categories[req.Category].total++
		if status.Status.Satisfied() {
			result.MandatorySatisfied++
			categories[req.Category].satisfied++
		} else {
			result.Gaps = append(result.Gaps, Gap{
				RequirementID: req.ID,
				Category:      req.Category,
				Title:         req.Title,
				Reason:        gapReason(status),
			})
		}
	}

	result.TotalScore = percentage(result.MandatorySatisfied, result.MandatoryTotal)
	for category, t := range categories {
		result.CategoryScores[category] = percentage(t.satisfied, t.total)
	}

	return result
}

func evaluate(req models.Requirement, matched []DocumentMeta) RequirementStatus {
	status := RequirementStatus{
		RequirementID: req.ID,
		Category:      req.Category,
		Title:         req.Title,
		Mandatory:     req.Mandatory,
		DocCount:      len(matched),
		YearsCovered:  distinctYears(matched),
	}

	if len(matched) == 0 {
		status.Status = StatusMissing
		return status
	}

	if req.RequiresSignature && !anySigned(matched) {
		status.Issues = append(status.Issues, "signed copy missing")
	}

	if req.MinYears != nil && len(status.YearsCovered) < *req.MinYears {
		status.Issues = append(status.Issues,
			fmt.Sprintf("covers %d of %d required years", len(status.YearsCovered), *req.MinYears))
	}

	switch {
	case len(status.Issues) > 0:
		status.Status = StatusIncomplete
	case allVerified(matched):
		status.Status = StatusVerified
	default:
		status.Status = StatusUploaded
	}

	return status
}

func gapReason(status RequirementStatus) string {
	if status.Status == StatusMissing {
		return "missing"
	}
	return strings.Join(status.Issues, "; ")
}

// percentage is defined as 100 when total is zero: a category without
// mandatory requirements is vacuously complete.
func percentage(satisfied, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(satisfied) / float64(total)))
}

func distinctYears(docs []DocumentMeta) []int {
	seen := make(map[int]struct{})
	for _, doc := range docs {
		if doc.PeriodYear != nil {
			seen[*doc.PeriodYear] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

func anySigned(docs []DocumentMeta) bool {
	for _, doc := range docs {
		if doc.Signed {
			return true
		}
	}
	return false
}

func allVerified(docs []DocumentMeta) bool {
	for _, doc := range docs {
		if !doc.Verified {
			return false
		}
	}
	return len(docs) > 0
}
