package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

// AlertFetchFailureRate fires when too many city fetches fail.
const AlertFetchFailureRate AlertType = "fetch_failure_rate"

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds and
// posts breaches to a webhook. An alert type is not re-sent within the
// cooldown after a successful delivery.
type Alerter struct {
	cfg      config.MonitoringConfig
	client   *http.Client
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[AlertType]time.Time
	nowFunc  func() time.Time
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:      cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
		cooldown: time.Duration(cfg.AlertCooldownMins) * time.Minute,
		lastSent: make(map[AlertType]time.Time),
		nowFunc:  time.Now,
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	minFetches := a.cfg.MinFetches
	if minFetches <= 0 {
		minFetches = 1
	}
	if snap.FetchTotal < minFetches || snap.FailRate <= a.cfg.FailureRateThreshold {
		return nil
	}

	details := map[string]any{
		"fail_rate": snap.FailRate,
		"threshold": a.cfg.FailureRateThreshold,
		"failed":    snap.FetchFailed,
		"total":     snap.FetchTotal,
	}
	if n := len(snap.RecentFailures); n > 0 {
		details["last_city"] = snap.RecentFailures[n-1].CityID
	}

	return []Alert{{
		Type:     AlertFetchFailureRate,
		Severity: "high",
		Message: fmt.Sprintf("City fetch failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d)",
			snap.FailRate*100, a.cfg.FailureRateThreshold*100, snap.FetchFailed, snap.FetchTotal),
		Details:   details,
		Timestamp: time.Now().UTC(),
	}}
}

// webhookPayload is the body posted for one delivery.
type webhookPayload struct {
	Source string  `json:"source"`
	Alerts []Alert `json:"alerts"`
}

// SendAlerts posts every alert outside its cooldown in a single request and
// returns how many were delivered.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" {
		return 0
	}

	now := a.nowFunc()
	a.mu.Lock()
	due := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		if last, ok := a.lastSent[alert.Type]; ok && now.Sub(last) < a.cooldown {
			continue
		}
		due = append(due, alert)
	}
	a.mu.Unlock()
	if len(due) == 0 {
		return 0
	}

	if err := a.post(ctx, webhookPayload{Source: "district-demographics", Alerts: due}); err != nil {
		zap.L().Error("monitoring: failed to send alerts", zap.Int("count", len(due)), zap.Error(err))
		return 0
	}

	a.mu.Lock()
	for _, alert := range due {
		a.lastSent[alert.Type] = now
	}
	a.mu.Unlock()

	for _, alert := range due {
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
	}
	return len(due)
}

func (a *Alerter) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alerts")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "monitoring: build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: post webhook")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("monitoring: webhook answered %d", resp.StatusCode)
	}
	return nil
}
