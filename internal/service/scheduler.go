package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs background maintenance jobs. Currently a single daily sweep
// that flips pending invoices past their due date to overdue.
type Scheduler struct {
	invoiceSvc InvoiceService
	cron       *cron.Cron
}

func NewScheduler(invoiceSvc InvoiceService) *Scheduler {
	return &Scheduler{invoiceSvc: invoiceSvc, cron: cron.New()}
}

// Start registers the jobs and launches the cron loop. The overdue sweep also
// runs once at startup so a restarted service catches up immediately.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 1 * * *", s.sweepOverdue); err != nil {
		return err
	}

	s.sweepOverdue()

	s.cron.Start()
	log.Println("Invoice scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sweepOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated, err := s.invoiceSvc.MarkOverdueInvoices(ctx)
	if err != nil {
		log.Printf("Overdue invoice sweep failed: %v", err)
		return
	}
	if updated > 0 {
		log.Printf("Marked %d invoices overdue", updated)
	}
}
