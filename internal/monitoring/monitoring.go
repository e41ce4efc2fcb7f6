package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service records operational events (registrations, deletions,
// provisioning outcomes) and keeps simple in-process counters for the
// health endpoint.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
	started  time.Time
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{
		counters: make(map[string]int64),
		started:  time.Now(),
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.mu.Lock()
	s.counters[eventName]++
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// Counters returns a snapshot of all event counters.
func (s *Service) Counters() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Uptime reports how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
