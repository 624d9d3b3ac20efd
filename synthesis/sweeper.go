package synthesis

import (
	"log"
	"time"

	"bandarlab/database"
)

// RetentionSweeper periodically reclaims raw ticks whose sessions already
// have a generated synthesis older than the grace period.
type RetentionSweeper struct {
	service   *Service
	graceDays int
	interval  time.Duration
	done      chan bool
}

// NewRetentionSweeper creates a new retention sweeper
func NewRetentionSweeper(service *Service, graceDays int) *RetentionSweeper {
	if graceDays <= 0 {
		graceDays = database.DefaultGraceDays
	}
	return &RetentionSweeper{
		service:   service,
		graceDays: graceDays,
		interval:  database.SweepInterval,
		done:      make(chan bool),
	}
}

// Start begins the sweep loop
func (rs *RetentionSweeper) Start() {
	log.Printf("🧹 Retention sweeper started (grace period: %d days)", rs.graceDays)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	// Initial run
	rs.sweep()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-rs.done:
			log.Println("🧹 Retention sweeper stopped")
			return
		}
	}
}

// Stop stops the sweep loop
func (rs *RetentionSweeper) Stop() {
	rs.done <- true
}

func (rs *RetentionSweeper) sweep() {
	deleted, err := rs.service.RunRetentionSweep(rs.graceDays)
	if err != nil {
		log.Printf("⚠️  Retention sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("🧹 Retention sweep reclaimed %d raw ticks", deleted)
	}
}
