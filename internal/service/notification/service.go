package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
	"github.com/chefbook/chefbook-api/internal/repository"
	"github.com/chefbook/chefbook-api/internal/service/preference"
	apperrors "github.com/chefbook/chefbook-api/pkg/errors"
	"github.com/chefbook/chefbook-api/pkg/metrics"
)

const defaultChannelTimeout = 10 * time.Second

// Service is the notification dispatcher: it persists the logical
// notification, resolves the channel set, fans out concurrently, and logs
// one delivery outcome per attempted channel. Channel failures never
// propagate to the caller.
type Service interface {
	Send(ctx context.Context, userID uuid.UUID, t model.NotificationType, payload *model.NotificationPayload, opts *model.SendOptions) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	List(ctx context.Context, userID uuid.UUID, filters *model.NotificationFilters) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeliveryLog(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryLogEntry, error)
}

type service struct {
	repo           repository.NotificationRepository
	deliveryLog    repository.DeliveryLogRepository
	prefs          preference.Service
	senders        map[model.Channel]notifier.Sender
	channelTimeout time.Duration
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

type Config struct {
	ChannelTimeout time.Duration
}

func NewService(
	repo repository.NotificationRepository,
	deliveryLog repository.DeliveryLogRepository,
	prefs preference.Service,
	senders []notifier.Sender,
	cfg Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) Service {
	byChannel := make(map[model.Channel]notifier.Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	timeout := cfg.ChannelTimeout
	if timeout <= 0 {
		timeout = defaultChannelTimeout
	}
	return &service{
		repo:           repo,
		deliveryLog:    deliveryLog,
		prefs:          prefs,
		senders:        byChannel,
		channelTimeout: timeout,
		metrics:        m,
		logger:         logger.With().Str("service", "notification").Logger(),
	}
}

// Send is best-effort broadcast with a durable audit trail. The only hard
// failure is the notification insert itself; everything after that is
// logged, never thrown.
func (s *service) Send(ctx context.Context, userID uuid.UUID, t model.NotificationType, payload *model.NotificationPayload, opts *model.SendOptions) (uuid.UUID, error) {
	tmpl, ok := model.TemplateFor(t)
	if !ok {
		return uuid.Nil, apperrors.BadRequest(fmt.Sprintf("unknown notification type: %s", t), nil)
	}
	if userID == uuid.Nil {
		return uuid.Nil, apperrors.BadRequest("user ID is required", nil)
	}
	if payload == nil || payload.Title == "" || payload.Body == "" {
		return uuid.Nil, apperrors.BadRequest("title and body are required", nil)
	}

	n := &model.Notification{
		UserID:   userID,
		Type:     t,
		Title:    payload.Title,
		Body:     payload.Body,
		Category: tmpl.Category,
		Priority: tmpl.Priority,
	}
	if payload.Category != "" {
		n.Category = payload.Category
	}
	if payload.Priority != "" {
		n.Priority = payload.Priority
	}
	if len(payload.Data) > 0 {
		data, err := json.Marshal(payload.Data)
		if err != nil {
			return uuid.Nil, apperrors.BadRequest("payload data is not serializable", err)
		}
		n.Data = data
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", string(t)).
			Msg("notification insert failed, nothing dispatched")
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.Inc()
	}

	channels := s.resolveChannels(ctx, userID, t, tmpl, opts)
	s.fanOut(ctx, n, channels, payload)

	return n.ID, nil
}

// resolveChannels computes the attempt set. Explicit override wins, then
// the blast-all escape hatch, then per-channel eligibility: IN_APP and PUSH
// follow the user's preference; EMAIL and SMS require the type's static
// flag AND the user's preference; WEBSOCKET is always included.
func (s *service) resolveChannels(ctx context.Context, userID uuid.UUID, t model.NotificationType, tmpl model.NotificationTemplate, opts *model.SendOptions) []model.Channel {
	if opts != nil && len(opts.Channels) > 0 {
		channels := make([]model.Channel, 0, len(opts.Channels))
		for _, ch := range opts.Channels {
			if _, ok := s.senders[ch]; ok {
				channels = append(channels, ch)
			}
		}
		return channels
	}
	if opts != nil && opts.SkipPreferences {
		return model.AllChannels
	}

	prefs := s.prefs.GetPreferencesForType(ctx, userID, t)

	var channels []model.Channel
	if prefs.Push {
		channels = append(channels, model.ChannelPush)
	}
	if tmpl.EmailEnabled && prefs.Email {
		channels = append(channels, model.ChannelEmail)
	}
	if tmpl.SMSEnabled && prefs.SMS {
		channels = append(channels, model.ChannelSMS)
	}
	channels = append(channels, model.ChannelWebsocket)
	if prefs.InApp {
		channels = append(channels, model.ChannelInApp)
	}
	return channels
}

// fanOut dispatches every channel concurrently and waits for all to settle.
// Each branch carries its own error boundary and timeout; total latency is
// bounded by the slowest channel, not the sum.
func (s *service) fanOut(ctx context.Context, n *model.Notification, channels []model.Channel, payload *model.NotificationPayload) {
	msg := &notifier.Message{
		Title:              payload.Title,
		Body:               payload.Body,
		Data:               payload.Data,
		Tag:                string(n.Type),
		Priority:           n.Priority,
		RequireInteraction: payload.RequireInteraction,
		Actions:            payload.Actions,
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch model.Channel) {
			defer wg.Done()
			s.dispatchChannel(ctx, n, ch, msg)
		}(ch)
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}
}

// dispatchChannel runs one sender and writes exactly one delivery-log row
// with the final outcome. Nothing escapes: panics and errors become a
// failed row.
func (s *service) dispatchChannel(ctx context.Context, n *model.Notification, ch model.Channel, msg *notifier.Message) {
	sender, ok := s.senders[ch]
	if !ok {
		return
	}

	start := time.Now()
	err := s.runSender(ctx, sender, n.UserID, msg)
	if s.metrics != nil {
		s.metrics.ChannelDuration.WithLabelValues(string(ch)).Observe(time.Since(start).Seconds())
	}

	entry := &model.DeliveryLogEntry{
		NotificationID: n.ID,
		Channel:        ch,
		Status:         successStatus(ch),
	}
	switch {
	case err == nil:
	case errors.Is(err, notifier.ErrSkipped):
		entry.Status = model.DeliveryStatusSkipped
	default:
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = err.Error()
		s.logger.Warn().Err(err).
			Str("notification_id", n.ID.String()).
			Str("channel", string(ch)).
			Msg("channel delivery failed")
	}

	if s.metrics != nil {
		s.metrics.ChannelAttempts.WithLabelValues(string(ch), string(entry.Status)).Inc()
	}

	if logErr := s.deliveryLog.Create(ctx, entry); logErr != nil {
		s.logger.Error().Err(logErr).
			Str("notification_id", n.ID.String()).
			Str("channel", string(ch)).
			Msg("delivery log write failed")
	}
}

// runSender bounds a single sender with the channel timeout. The sender
// runs in its own goroutine so even one that ignores its context cannot
// stall the join past the deadline.
func (s *service) runSender(ctx context.Context, sender notifier.Sender, userID uuid.UUID, msg *notifier.Message) error {
	cctx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("sender panicked: %v", r)
			}
		}()
		done <- sender.Send(cctx, userID, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		return fmt.Errorf("channel timed out after %s", s.channelTimeout)
	}
}

// WEBSOCKET has no detectable failure mode (fire-and-forget) and IN_APP is
// delivered the moment the row exists; both log delivered. Transports that
// hand off to a provider log sent.
func successStatus(ch model.Channel) model.DeliveryStatus {
	switch ch {
	case model.ChannelWebsocket, model.ChannelInApp:
		return model.DeliveryStatusDelivered
	default:
		return model.DeliveryStatusSent
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filters *model.NotificationFilters) ([]*model.Notification, error) {
	return s.repo.List(ctx, userID, filters)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) DeliveryLog(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryLogEntry, error) {
	return s.deliveryLog.ListByNotification(ctx, notificationID)
}
