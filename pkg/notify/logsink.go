package notify

import "context"

// logPublisher writes events to the structured log. It is the safe default
// sink: no network, cannot fail.
type logPublisher struct {
	id  string
	log Logger
}

func newLogPublisher(_ context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	return &logPublisher{id: cfg.ID, log: ensureLogger(log)}, nil
}

func (l *logPublisher) ID() string   { return l.id }
func (l *logPublisher) Type() string { return TypeLog }

func (l *logPublisher) Publish(_ context.Context, evt Event) error {
	l.log.InfoObj("event", "notify_event", map[string]any{
		"sink_id":    l.id,
		"event_id":   evt.ID,
		"event_type": evt.Type,
		"project":    evt.Project,
		"principal":  evt.Principal,
	})
	return nil
}
