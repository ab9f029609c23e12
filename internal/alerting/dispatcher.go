// internal/alerting/dispatcher.go

// Package alerting publishes high-waste notifications to an SNS topic.
// Records flow in from the wastage write path; publishing happens on a
// background goroutine so a slow broker never blocks a request.
package alerting

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/models"
)

const (
	defaultQueueSize = 64
	publishTimeout   = 10 * time.Second
	initialBackoff   = 500 * time.Millisecond
)

// Publisher sends one alert message. Satisfied by the SNS client.
type Publisher interface {
	PublishMessage(ctx context.Context, topicARN, subject, message string) error
}

// Config controls the dispatcher. A non-positive ThresholdKg disables
// alerting entirely.
type Config struct {
	Enabled     bool
	ThresholdKg float64
	TopicARN    string
	QueueSize   int
}

// Dispatcher watches persisted waste records and raises an alert for
// any single record at or above the configured threshold.
type Dispatcher struct {
	config    Config
	publisher Publisher
	logger    logger.Logger
	queue     chan models.WasteRecord
	wg        sync.WaitGroup
	stopped   atomic.Bool
	stopOnce  sync.Once
}

func NewDispatcher(cfg Config, publisher Publisher, log logger.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Dispatcher{
		config:    cfg,
		publisher: publisher,
		logger:    log.Named("alerting"),
		queue:     make(chan models.WasteRecord, cfg.QueueSize),
	}
}

// Start launches the publish loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.logger.Info("Alert dispatcher started", map[string]interface{}{
		"enabled":     d.active(),
		"thresholdKg": d.config.ThresholdKg,
		"queueSize":   d.config.QueueSize,
	})
}

// Stop closes the queue and waits for in-flight publishes until the
// context expires.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.queue)
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Alert dispatcher stopped", nil)
	case <-ctx.Done():
		d.logger.Warn("Alert dispatcher stopped before queue drained", nil)
	}
}

// Observe enqueues the record for alerting when it crosses the
// threshold. Never blocks; when the queue is full the alert is dropped
// with a warning.
func (d *Dispatcher) Observe(rec models.WasteRecord) {
	if !d.active() || d.stopped.Load() {
		return
	}
	if rec.QuantityKg < d.config.ThresholdKg {
		return
	}

	select {
	case d.queue <- rec:
	default:
		d.logger.Warn("Alert queue full, dropping alert", map[string]interface{}{
			"recordId":   rec.ID,
			"quantityKg": rec.QuantityKg,
		})
	}
}

func (d *Dispatcher) active() bool {
	return d.config.Enabled && d.publisher != nil && d.config.ThresholdKg > 0
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for rec := range d.queue {
		d.publish(rec)
	}
}

func (d *Dispatcher) publish(rec models.WasteRecord) {
	payload, err := json.Marshal(map[string]interface{}{
		"record_id":    rec.ID,
		"user_id":      rec.UserID,
		"food_item":    rec.FoodItem,
		"quantity_kg":  rec.QuantityKg,
		"threshold_kg": d.config.ThresholdKg,
		"logged_on":    rec.LoggedOn.Format("2006-01-02"),
	})
	if err != nil {
		d.logger.Error("Alert payload marshal failed", map[string]interface{}{
			"recordId": rec.ID,
			"error":    err.Error(),
		})
		return
	}

	maxAttempts := 1 + errors.GetRetryCount(errors.ErrCodeNotificationSendFailed)
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = d.publisher.PublishMessage(ctx, d.config.TopicARN, "High waste alert", string(payload))
		cancel()

		if err == nil {
			metrics.AlertsPublished.Inc()
			d.logger.Info("High waste alert published", map[string]interface{}{
				"recordId":   rec.ID,
				"userId":     rec.UserID,
				"foodItem":   rec.FoodItem,
				"quantityKg": rec.QuantityKg,
			})
			return
		}

		if attempt < maxAttempts {
			d.logger.Warn("Alert publish failed, retrying", map[string]interface{}{
				"recordId": rec.ID,
				"attempt":  attempt,
				"error":    err.Error(),
			})
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	d.logger.Error("Alert publish failed after retries", map[string]interface{}{
		"recordId": rec.ID,
		"attempts": maxAttempts,
		"error":    err.Error(),
	})
}
