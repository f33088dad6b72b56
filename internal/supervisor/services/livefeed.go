package services

import "context"

// ContextRunner matches livefeed.Hub's RunWithContext method. Declared
// locally so this package doesn't import internal/livefeed.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// LiveFeedService wraps a live-feed hub as a supervised service.
type LiveFeedService struct {
	hub  ContextRunner
	name string
}

// NewLiveFeedService wraps hub.
func NewLiveFeedService(hub ContextRunner) *LiveFeedService {
	return &LiveFeedService{hub: hub, name: "livefeed-hub"}
}

// Serve implements suture.Service.
func (s *LiveFeedService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *LiveFeedService) String() string { return s.name }
