package service

import (
	"math"
	"strings"
	"time"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

// completionChecklist evaluates the profile checklist for a user. Baseline
// items (all roles): first name, last name, phone, profile image, address,
// bio, verified email. Roles below ADMIN also need an active
// TRAINING_BEHAVIOR_STANDARDS agreement.
func completionChecklist(user *models.User, agreements []models.Agreement) []models.ChecklistItem {
	items := []models.ChecklistItem{
		{Label: "First name", Completed: hasText(user.FirstName)},
		{Label: "Last name", Completed: hasText(user.LastName)},
		{Label: "Phone number", Completed: hasText(user.Phone)},
		{Label: "Profile photo", Completed: hasText(user.ProfileImage)},
		{Label: "Address", Completed: len(user.Address) > 0},
		{Label: "Bio", Completed: hasText(user.Bio)},
		{Label: "Verified email", Completed: user.EmailVerified != nil},
	}

	if user.Role != models.RoleAdmin && user.Role != models.RoleSuperAdmin {
		items = append(items, models.ChecklistItem{
			Label:     "Training and behavior standards agreement",
			Completed: hasActiveTrainingAgreement(agreements),
		})
	}
	return items
}

// CalculateCompletion derives the profile completion percentage in [0,100].
// Missing or null fields count as incomplete, never as errors. Rounding is
// half-away-from-zero (math.Round), so 3/8 yields 38 and 3/7 yields 43.
func CalculateCompletion(user *models.User, agreements []models.Agreement) int {
	return CompletionBreakdown(user, agreements).Percent
}

// CompletionBreakdown returns the percentage together with the labelled
// checklist rows it was derived from.
func CompletionBreakdown(user *models.User, agreements []models.Agreement) models.CompletionBreakdown {
	if user == nil {
		return models.CompletionBreakdown{}
	}
	items := completionChecklist(user, agreements)
	completed := 0
	for _, item := range items {
		if item.Completed {
			completed++
		}
	}
	breakdown := models.CompletionBreakdown{
		Completed: completed,
		Total:     len(items),
		Checklist: items,
	}
	if breakdown.Total > 0 {
		breakdown.Percent = int(math.Round(100 * float64(completed) / float64(breakdown.Total)))
	}
	return breakdown
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func hasActiveTrainingAgreement(agreements []models.Agreement) bool {
	for _, a := range agreements {
		if a.Type == models.AgreementTrainingStandards && a.IsActive {
			return true
		}
	}
	return false
}

// mostRecentActive resolves the single active agreement per type. Duplicate
// active rows violate the uniqueness invariant; reads pick the most recently
// accepted one deterministically instead of failing.
func mostRecentActive(agreements []models.Agreement, agreementType models.AgreementType) (*models.Agreement, int) {
	var current *models.Agreement
	count := 0
	for i := range agreements {
		a := &agreements[i]
		if a.Type != agreementType || !a.IsActive {
			continue
		}
		count++
		if current == nil || a.AcceptedAt.After(current.AcceptedAt) {
			current = a
		}
	}
	return current, count
}

// elapsedFraction is the share of an agreement's validity window already
// spent, clamped to [0,1]. Display data only.
func elapsedFraction(a *models.Agreement, now time.Time) float64 {
	if a == nil || a.ExpiresAt == nil {
		return 0
	}
	span := a.ExpiresAt.Sub(a.AcceptedAt)
	if span <= 0 {
		return 1
	}
	fraction := float64(now.Sub(a.AcceptedAt)) / float64(span)
	return math.Min(math.Max(fraction, 0), 1)
}
