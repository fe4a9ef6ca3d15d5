package jobs

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/emyflow/emyflow-backend/internal/cache"
)

// SweepJob periodically removes expired entries from the in-memory caches so
// memory stays bounded even with zero traffic. Cache writes additionally
// expire stale entries opportunistically.
type SweepJob struct {
	cron      *cron.Cron
	leadGuard *cache.TTLCache
	handoffs  *cache.TTLCache
}

// NewSweepJob creates the sweep scheduler for the two pipeline caches
func NewSweepJob(leadGuard, handoffs *cache.TTLCache) *SweepJob {
	return &SweepJob{
		cron:      cron.New(),
		leadGuard: leadGuard,
		handoffs:  handoffs,
	}
}

// Start schedules the sweep every 5 minutes
func (s *SweepJob) Start() {
	if _, err := s.cron.AddFunc("@every 5m", s.Run); err != nil {
		log.Printf("Failed to schedule cache sweep: %v", err)
		return
	}
	s.cron.Start()
	log.Println("✅ Cache sweep job scheduled (every 5m)")
}

// Run performs one sweep pass. Exported so a write path or test can trigger
// it out of schedule.
func (s *SweepJob) Run() {
	now := time.Now()
	leads := s.leadGuard.Sweep(now)
	handoffs := s.handoffs.Sweep(now)
	if leads > 0 || handoffs > 0 {
		log.Printf("[Cache Sweep] Removed %d expired leads, %d expired handoffs", leads, handoffs)
	}
}

// Stop halts the scheduler
func (s *SweepJob) Stop() {
	s.cron.Stop()
}
