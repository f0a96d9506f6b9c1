package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type trainerRepository interface {
	ListTrainers(ctx context.Context, filter models.TrainerFilter) ([]models.User, int, error)
	FindByTrainerSlug(ctx context.Context, slug string) (*models.User, error)
}

// TrainerDirectoryPage is the cached shape of one directory page.
type TrainerDirectoryPage struct {
	Trainers   []models.TrainerProfile `json:"trainers"`
	Pagination models.Pagination       `json:"pagination"`
}

// TrainerService serves the public trainer directory.
type TrainerService struct {
	repo     trainerRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTrainerService constructs a TrainerService instance.
func NewTrainerService(repo trainerRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *TrainerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Directory lists public trainer profiles. Pages are cached; profile edits
// invalidate the whole directory.
func (s *TrainerService) Directory(ctx context.Context, filter models.TrainerFilter) (*TrainerDirectoryPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	cacheKey := fmt.Sprintf("trainers:page:%d:%d:%s", filter.Page, filter.PageSize, filter.Search)
	var cached TrainerDirectoryPage
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	trainers, total, err := s.repo.ListTrainers(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainers")
	}

	page := &TrainerDirectoryPage{
		Trainers: make([]models.TrainerProfile, 0, len(trainers)),
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		},
	}
	for i := range trainers {
		page.Trainers = append(page.Trainers, publicTrainerProfile(&trainers[i]))
	}

	s.cache.Set(ctx, cacheKey, page, s.cacheTTL)
	return page, nil
}

// BySlug returns one public trainer profile by its directory slug.
func (s *TrainerService) BySlug(ctx context.Context, slug string) (*models.TrainerProfile, error) {
	cacheKey := "trainers:slug:" + slug
	var cached models.TrainerProfile
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	trainer, err := s.repo.FindByTrainerSlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}

	if trainer.Role != models.RoleTrainer || !trainer.PublicProfile || !trainer.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
	}

	profile := publicTrainerProfile(trainer)
	s.cache.Set(ctx, cacheKey, profile, s.cacheTTL)
	return &profile, nil
}

// publicTrainerProfile projects a user row onto the directory view.
func publicTrainerProfile(user *models.User) models.TrainerProfile {
	profile := models.TrainerProfile{
		ID:           user.ID,
		MemberNumber: user.MemberNumber,
		Specialties:  user.Specialties,
	}
	if user.FirstName != nil {
		profile.FirstName = *user.FirstName
	}
	if user.LastName != nil {
		profile.LastName = *user.LastName
	}
	if user.BusinessName != nil {
		profile.BusinessName = *user.BusinessName
	}
	if user.Bio != nil {
		profile.Bio = *user.Bio
	}
	if user.Website != nil {
		profile.Website = *user.Website
	}
	if user.ProfileImage != nil {
		profile.ProfileImage = *user.ProfileImage
	}
	if user.TrainerSlug != nil {
		profile.TrainerSlug = *user.TrainerSlug
	}
	return profile
}
