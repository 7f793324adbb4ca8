package core

import (
	"context"

	"lighthousecore/pkg/geo"
)

// LocationProvider resolves a best-effort origin coordinate for facility
// ranking. Implementations return domain.ErrLocationUnavailable when no fix
// can be produced; callers recover by listing facilities unranked.
type LocationProvider interface {
	CurrentCoordinate(ctx context.Context) (geo.Coordinate, error)
}

// LocationFunc adapts a plain function to LocationProvider.
type LocationFunc func(ctx context.Context) (geo.Coordinate, error)

// CurrentCoordinate implements LocationProvider.
func (f LocationFunc) CurrentCoordinate(ctx context.Context) (geo.Coordinate, error) {
	return f(ctx)
}

// AlertSink receives fire-and-forget user-facing alerts, such as the
// distribution thank-you. Failures are never surfaced to callers.
type AlertSink interface {
	Notify(title, body string)
}

// NoopAlertSink discards alerts.
type NoopAlertSink struct{}

// Notify implements AlertSink.
func (NoopAlertSink) Notify(string, string) {}

// LoggerAlertSink writes alerts to the service logger at info level.
type LoggerAlertSink struct {
	Logger Logger
}

// Notify implements AlertSink.
func (s LoggerAlertSink) Notify(title, body string) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("alert", "title", title, "body", body)
}
