// Package background schedules the periodic sweeps that drive expiry
// notifications.
package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hibiken/asynq"

	"freshkeeper/internal/jobs"
	"freshkeeper/internal/repositories"
)

// JobScheduler runs the daily expiry sweep: one asynq task per active
// user, so the notification work happens on the queue workers rather than
// inside the scheduler tick.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	users      repositories.UserRepository
	client     *asynq.Client
	withinDays int
	sweepCron  string
}

// NewJobScheduler builds the scheduler. sweepCron overrides the default
// daily 09:00 schedule when non-empty.
func NewJobScheduler(users repositories.UserRepository, client *asynq.Client, withinDays int, sweepCron string) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if withinDays <= 0 {
		withinDays = 3
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		users:      users,
		client:     client,
		withinDays: withinDays,
		sweepCron:  sweepCron,
	}
	js.registerJobs()
	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	definition := gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(9, 0, 0)))
	if js.sweepCron != "" {
		definition = gocron.CronJob(js.sweepCron, false)
	}

	_, err := js.scheduler.NewJob(
		definition,
		gocron.NewTask(js.sweepExpiring, context.Background()),
		gocron.WithName("expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create expiry sweep job: %v", err)
	}
}

// sweepExpiring enqueues one notification task per active user. A failed
// enqueue for one user does not stop the sweep.
func (js *JobScheduler) sweepExpiring(ctx context.Context) {
	started := time.Now()
	users, err := js.users.ListActive(ctx)
	if err != nil {
		log.Printf("expiry sweep failed to list users: %v", err)
		return
	}

	enqueued := 0
	for _, user := range users {
		task, err := jobs.NewExpiryNotifyTask(user.ID, js.withinDays)
		if err != nil {
			log.Printf("expiry sweep failed to build task for user %s: %v", user.ID, err)
			continue
		}
		if _, err := js.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
			log.Printf("expiry sweep failed to enqueue task for user %s: %v", user.ID, err)
			continue
		}
		enqueued++
	}
	log.Printf("expiry sweep enqueued %d/%d users in %s", enqueued, len(users), time.Since(started))
}
