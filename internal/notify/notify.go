// Package notify delivers address change events to external receivers.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ovpnsync/internal/config"
	"ovpnsync/internal/types"
)

const queueSize = 16

// notification represents a notification to be sent
type notification struct {
	notifierType NotifierType
	notifyFunc   func(context.Context, Notifier) error
}

// Manager fans events out to the enabled notifiers in the background,
// so a slow receiver never delays the sync loop.
type Manager struct {
	config      *config.NotifyConfig
	logger      *zap.Logger
	notifiers   map[NotifierType]Notifier
	mu          sync.RWMutex
	rateLimiter *RateLimiter
	notifyChan  chan notification
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewManager creates new notifier manager
func NewManager(cfg *config.NotifyConfig, logger *zap.Logger) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:      cfg,
		logger:      logger,
		notifiers:   make(map[NotifierType]Notifier),
		rateLimiter: NewRateLimiter(cfg.RateLimit.Interval, cfg.RateLimit.MaxEvents),
		notifyChan:  make(chan notification, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
	if !cfg.RateLimit.Enabled {
		m.rateLimiter = NewRateLimiter(0, 0)
	}

	if cfg.Webhook.Enabled {
		n, err := NewWebhookNotifier(&cfg.Webhook, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize webhook notifier: %w", err)
		}
		m.notifiers[NotifierWebhook] = n
	}

	m.wg.Add(1)
	go m.processNotifications()

	return m, nil
}

// processNotifications handles notification sending in background until
// the queue is closed and drained
func (m *Manager) processNotifications() {
	defer m.wg.Done()

	for n := range m.notifyChan {
		m.mu.RLock()
		notifier, ok := m.notifiers[n.notifierType]
		m.mu.RUnlock()

		if !ok {
			continue
		}

		if !m.rateLimiter.AllowNotification(n.notifierType) {
			m.logger.Warn("Rate limit exceeded for notifier",
				zap.String("type", string(n.notifierType)))
			continue
		}

		if err := n.notifyFunc(m.ctx, notifier); err != nil {
			m.logger.Error("Failed to send notification",
				zap.String("type", string(n.notifierType)),
				zap.Error(err))
		}
	}
}

// NotifyAddressChange queues an address change for every notifier.
// Events are dropped when the queue is full.
func (m *Manager) NotifyAddressChange(change *types.AddressChange) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return
	}

	for t := range m.notifiers {
		n := notification{
			notifierType: t,
			notifyFunc: func(ctx context.Context, n Notifier) error {
				return n.NotifyAddressChange(ctx, change)
			},
		}
		select {
		case m.notifyChan <- n:
		default:
			m.logger.Warn("Notification queue full, dropping event",
				zap.String("type", string(t)),
				zap.String("address", change.Current))
		}
	}
}

// Stop delivers queued events and stops the manager. In-flight deliveries
// are cancelled when draining takes longer than 30 seconds.
func (m *Manager) Stop() error {
	defer m.cancel()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.notifyChan)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(30 * time.Second):
		m.cancel()
		return fmt.Errorf("timeout waiting for notifications to complete")
	}
}

// Health checks every notifier
func (m *Manager) Health(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for t, n := range m.notifiers {
		if err := n.Health(ctx); err != nil {
			return fmt.Errorf("%s notifier unhealthy: %w", t, err)
		}
	}
	return nil
}

// IsEnabled checks if notifications are enabled
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// IsNotifierEnabled checks if a notifier is enabled
func (m *Manager) IsNotifierEnabled(notifierType NotifierType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.notifiers[notifierType]
	return ok
}
