package preference

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/repository"
	apperrors "github.com/chefbook/chefbook-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service resolves per-user channel opt-ins. Reads never fail: on any
// storage error the static type default applies (fail-open to defaults,
// never fail-closed to silence).
type Service interface {
	GetPreferencesForType(ctx context.Context, userID uuid.UUID, t model.NotificationType) model.ChannelPreferences
	IsChannelEnabled(ctx context.Context, userID uuid.UUID, t model.NotificationType, channel model.Channel) bool
	UpdateNotificationPreference(ctx context.Context, userID uuid.UUID, t model.NotificationType, update *model.ChannelPreferencesUpdate) error
	GetAllPreferences(ctx context.Context, userID uuid.UUID) (map[model.NotificationType]model.ChannelPreferences, error)
	ResetPreferencesToDefaults(ctx context.Context, userID uuid.UUID) error
	InitializeUserPreferences(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo   repository.PreferenceRepository
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewService(repo repository.PreferenceRepository, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		cache:  cache.New(cacheTTL, cacheCleanup),
		logger: logger.With().Str("service", "preference").Logger(),
	}
}

func cacheKey(userID uuid.UUID, t model.NotificationType) string {
	return userID.String() + ":" + string(t)
}

func (s *service) GetPreferencesForType(ctx context.Context, userID uuid.UUID, t model.NotificationType) model.ChannelPreferences {
	if cached, ok := s.cache.Get(cacheKey(userID, t)); ok {
		return cached.(model.ChannelPreferences)
	}

	prefs := s.loadPreferences(ctx, userID, t)
	s.cache.Set(cacheKey(userID, t), prefs, cache.DefaultExpiration)
	return prefs
}

func (s *service) loadPreferences(ctx context.Context, userID uuid.UUID, t model.NotificationType) model.ChannelPreferences {
	row, err := s.repo.Get(ctx, userID, t)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn().Err(err).
				Str("user_id", userID.String()).
				Str("type", string(t)).
				Msg("preference read failed, falling back to defaults")
		}
		return model.DefaultChannelPreferences(t)
	}
	return row.Channels()
}

func (s *service) IsChannelEnabled(ctx context.Context, userID uuid.UUID, t model.NotificationType, channel model.Channel) bool {
	// Real-time delivery is not user-suppressible: it is low-cost and
	// drives live UI state.
	if channel == model.ChannelWebsocket {
		return true
	}

	prefs := s.GetPreferencesForType(ctx, userID, t)
	switch channel {
	case model.ChannelPush:
		return prefs.Push
	case model.ChannelEmail:
		return prefs.Email
	case model.ChannelSMS:
		return prefs.SMS
	case model.ChannelInApp:
		return prefs.InApp
	default:
		return false
	}
}

// UpdateNotificationPreference merges a partial update over the stored row
// (or the type default when no row exists) and upserts the result. Rows for
// other types are untouched. Idempotent.
func (s *service) UpdateNotificationPreference(ctx context.Context, userID uuid.UUID, t model.NotificationType, update *model.ChannelPreferencesUpdate) error {
	if _, ok := model.TemplateFor(t); !ok {
		return apperrors.BadRequest(fmt.Sprintf("unknown notification type: %s", t), nil)
	}

	current := s.loadPreferences(ctx, userID, t)
	if update.Push != nil {
		current.Push = *update.Push
	}
	if update.Email != nil {
		current.Email = *update.Email
	}
	if update.SMS != nil {
		current.SMS = *update.SMS
	}
	if update.InApp != nil {
		current.InApp = *update.InApp
	}

	row := &model.NotificationPreference{
		UserID:           userID,
		NotificationType: t,
		ChannelPush:      current.Push,
		ChannelEmail:     current.Email,
		ChannelSMS:       current.SMS,
		ChannelInApp:     current.InApp,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}

	s.cache.Delete(cacheKey(userID, t))
	return nil
}

// GetAllPreferences builds the full default map first so every type is
// represented, then overlays stored rows. The static defaults are never
// mutated.
func (s *service) GetAllPreferences(ctx context.Context, userID uuid.UUID) (map[model.NotificationType]model.ChannelPreferences, error) {
	all := make(map[model.NotificationType]model.ChannelPreferences, len(model.NotificationTypes()))
	for _, t := range model.NotificationTypes() {
		all[t] = model.DefaultChannelPreferences(t)
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	for _, row := range rows {
		if _, known := all[row.NotificationType]; !known {
			continue
		}
		all[row.NotificationType] = row.Channels()
	}
	return all, nil
}

func (s *service) ResetPreferencesToDefaults(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}
	s.invalidateUser(userID)
	return nil
}

// InitializeUserPreferences materializes one default row per type. Optional:
// the fallback path already covers missing rows; this just gives new users
// explicit rows to edit. Idempotent.
func (s *service) InitializeUserPreferences(ctx context.Context, userID uuid.UUID) error {
	for _, t := range model.NotificationTypes() {
		if _, err := s.repo.Get(ctx, userID, t); err == nil {
			continue
		}
		defaults := model.DefaultChannelPreferences(t)
		row := &model.NotificationPreference{
			UserID:           userID,
			NotificationType: t,
			ChannelPush:      defaults.Push,
			ChannelEmail:     defaults.Email,
			ChannelSMS:       defaults.SMS,
			ChannelInApp:     defaults.InApp,
		}
		if err := s.repo.Upsert(ctx, row); err != nil {
			return fmt.Errorf("failed to initialize preferences: %w", err)
		}
	}
	s.invalidateUser(userID)
	return nil
}

func (s *service) invalidateUser(userID uuid.UUID) {
	for _, t := range model.NotificationTypes() {
		s.cache.Delete(cacheKey(userID, t))
	}
}
