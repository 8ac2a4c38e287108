package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefbook/chefbook-api/internal/model"
	apperrors "github.com/chefbook/chefbook-api/pkg/errors"
)

type fakePrefRepo struct {
	rows     map[string]*model.NotificationPreference
	getErr   error
	listErr  error
	getCalls int
	upserts  int
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{rows: make(map[string]*model.NotificationPreference)}
}

func key(userID uuid.UUID, t model.NotificationType) string {
	return userID.String() + "/" + string(t)
}

func (r *fakePrefRepo) Get(_ context.Context, userID uuid.UUID, t model.NotificationType) (*model.NotificationPreference, error) {
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[key(userID, t)]
	if !ok {
		return nil, apperrors.NotFound("preference", nil)
	}
	return row, nil
}

func (r *fakePrefRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*model.NotificationPreference
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakePrefRepo) Upsert(_ context.Context, pref *model.NotificationPreference) error {
	r.upserts++
	r.rows[key(pref.UserID, pref.NotificationType)] = pref
	return nil
}

func (r *fakePrefRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for k, row := range r.rows {
		if row.UserID == userID {
			delete(r.rows, k)
		}
	}
	return nil
}

func storeRow(r *fakePrefRepo, userID uuid.UUID, t model.NotificationType, push, email, sms, inApp bool) {
	r.rows[key(userID, t)] = &model.NotificationPreference{
		UserID:           userID,
		NotificationType: t,
		ChannelPush:      push,
		ChannelEmail:     email,
		ChannelSMS:       sms,
		ChannelInApp:     inApp,
	}
}

func TestGetPreferencesFallsBackToDefaults(t *testing.T) {
	repo := newFakePrefRepo()
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()

	prefs := svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.Equal(t, model.ChannelPreferences{Push: true, Email: true, SMS: true, InApp: true}, prefs)

	// message_received defaults email and sms off via its template.
	prefs = svc.GetPreferencesForType(context.Background(), userID, model.NotificationMessageReceived)
	assert.Equal(t, model.ChannelPreferences{Push: true, Email: false, SMS: false, InApp: true}, prefs)
}

func TestGetPreferencesFailOpenOnStorageError(t *testing.T) {
	repo := newFakePrefRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewService(repo, zerolog.Nop())

	prefs := svc.GetPreferencesForType(context.Background(), uuid.New(), model.NotificationBookingConfirmed)
	assert.Equal(t, model.DefaultChannelPreferences(model.NotificationBookingConfirmed), prefs)
}

func TestGetPreferencesReturnsStoredRow(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, false, true, false, true)
	svc := NewService(repo, zerolog.Nop())

	prefs := svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.Equal(t, model.ChannelPreferences{Push: false, Email: true, SMS: false, InApp: true}, prefs)
}

func TestGetPreferencesCachesReads(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, true, true, true, true)
	svc := NewService(repo, zerolog.Nop())

	svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	calls := repo.getCalls
	svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.Equal(t, calls, repo.getCalls)
}

func TestIsChannelEnabledWebsocketAlwaysOn(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, false, false, false, false)
	svc := NewService(repo, zerolog.Nop())

	assert.True(t, svc.IsChannelEnabled(context.Background(), userID, model.NotificationBookingConfirmed, model.ChannelWebsocket))
	assert.False(t, svc.IsChannelEnabled(context.Background(), userID, model.NotificationBookingConfirmed, model.ChannelPush))
	assert.False(t, svc.IsChannelEnabled(context.Background(), userID, model.NotificationBookingConfirmed, model.ChannelEmail))
}

func TestUpdateMergesPartialOverStored(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, true, true, true, true)
	svc := NewService(repo, zerolog.Nop())

	off := false
	err := svc.UpdateNotificationPreference(context.Background(), userID, model.NotificationBookingConfirmed,
		&model.ChannelPreferencesUpdate{Email: &off})
	require.NoError(t, err)

	row := repo.rows[key(userID, model.NotificationBookingConfirmed)]
	require.NotNil(t, row)
	assert.False(t, row.ChannelEmail)
	assert.True(t, row.ChannelPush)
	assert.True(t, row.ChannelSMS)
	assert.True(t, row.ChannelInApp)
}

func TestUpdateMergesPartialOverDefaults(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	svc := NewService(repo, zerolog.Nop())

	off := false
	err := svc.UpdateNotificationPreference(context.Background(), userID, model.NotificationBookingConfirmed,
		&model.ChannelPreferencesUpdate{SMS: &off})
	require.NoError(t, err)

	row := repo.rows[key(userID, model.NotificationBookingConfirmed)]
	require.NotNil(t, row)
	assert.False(t, row.ChannelSMS)
	assert.True(t, row.ChannelPush)
	assert.True(t, row.ChannelEmail)
	assert.True(t, row.ChannelInApp)
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	svc := NewService(newFakePrefRepo(), zerolog.Nop())

	off := false
	err := svc.UpdateNotificationPreference(context.Background(), uuid.New(), model.NotificationType("made_up"),
		&model.ChannelPreferencesUpdate{Push: &off})
	assert.Error(t, err)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	svc := NewService(repo, zerolog.Nop())

	prefs := svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.True(t, prefs.Push)

	off := false
	require.NoError(t, svc.UpdateNotificationPreference(context.Background(), userID, model.NotificationBookingConfirmed,
		&model.ChannelPreferencesUpdate{Push: &off}))

	prefs = svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.False(t, prefs.Push)
}

func TestGetAllPreferencesCoversEveryType(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, false, false, false, false)
	// A stored row for a type this build no longer knows is ignored.
	storeRow(repo, userID, model.NotificationType("retired_type"), true, true, true, true)
	svc := NewService(repo, zerolog.Nop())

	all, err := svc.GetAllPreferences(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, all, len(model.NotificationTypes()))

	assert.Equal(t, model.ChannelPreferences{}, all[model.NotificationBookingConfirmed])
	assert.Equal(t, model.DefaultChannelPreferences(model.NotificationPaymentFailed), all[model.NotificationPaymentFailed])
	assert.NotContains(t, all, model.NotificationType("retired_type"))
}

func TestResetDeletesRowsAndFallsBackToDefaults(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, false, false, false, false)
	svc := NewService(repo, zerolog.Nop())

	// Prime the cache with the stored row.
	prefs := svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.False(t, prefs.Push)

	require.NoError(t, svc.ResetPreferencesToDefaults(context.Background(), userID))

	prefs = svc.GetPreferencesForType(context.Background(), userID, model.NotificationBookingConfirmed)
	assert.Equal(t, model.DefaultChannelPreferences(model.NotificationBookingConfirmed), prefs)
	assert.Empty(t, repo.rows)
}

func TestInitializeIsIdempotent(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	svc := NewService(repo, zerolog.Nop())

	require.NoError(t, svc.InitializeUserPreferences(context.Background(), userID))
	assert.Equal(t, len(model.NotificationTypes()), repo.upserts)
	assert.Len(t, repo.rows, len(model.NotificationTypes()))

	require.NoError(t, svc.InitializeUserPreferences(context.Background(), userID))
	assert.Equal(t, len(model.NotificationTypes()), repo.upserts)
}

func TestInitializeKeepsExistingRows(t *testing.T) {
	repo := newFakePrefRepo()
	userID := uuid.New()
	storeRow(repo, userID, model.NotificationBookingConfirmed, false, false, false, false)
	svc := NewService(repo, zerolog.Nop())

	require.NoError(t, svc.InitializeUserPreferences(context.Background(), userID))

	row := repo.rows[key(userID, model.NotificationBookingConfirmed)]
	require.NotNil(t, row)
	assert.False(t, row.ChannelPush)
}
