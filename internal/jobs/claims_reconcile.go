// File: internal/jobs/claims_reconcile.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"gratias_backend/internal/claims"
	"gratias_backend/internal/config"
	"gratias_backend/internal/site"
	"gratias_backend/internal/user"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ClaimsReconcileJob periodically re-pushes each user's plan, quota and site
// count into the identity provider's claims. Claims writes during normal
// operation are best-effort; this job repairs whatever those writes missed.
type ClaimsReconcileJob struct {
	users         user.Repository
	sites         site.Repository
	syncer        claims.Syncer
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewClaimsReconcileJob creates a new ClaimsReconcileJob.
func NewClaimsReconcileJob(
	users user.Repository,
	sites site.Repository,
	syncer claims.Syncer,
	logger *zap.Logger,
	cfg *config.Config,
) *ClaimsReconcileJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &ClaimsReconcileJob{
		users:         users,
		sites:         sites,
		syncer:        syncer,
		logger:        logger.Named("ClaimsReconcileJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job. An empty schedule disables
// the job without failing startup.
func (j *ClaimsReconcileJob) SetupAndStart() error {
	jobSpec := j.cfg.ClaimsReconcileJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Claims reconcile job schedule not defined (CLAIMS_RECONCILE_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule claims reconcile job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Claims reconcile job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob walks all stored users and re-syncs their claims. Per-user failures
// are logged and skipped so one broken account does not stall the sweep.
func (j *ClaimsReconcileJob) runJob() {
	j.logger.Info("Starting claims reconcile run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := j.users.ListAll(ctx)
	if err != nil {
		j.logger.Error("Claims reconcile run failed to list users", zap.Error(err))
		return
	}

	var failures int
	for i := range users {
		u := &users[i]
		if err := j.reconcileUser(ctx, u); err != nil {
			failures++
			j.logger.Error("Claims reconcile failed for user",
				zap.String("uid", u.FirebaseUID), zap.Error(err))
		}
	}

	j.logger.Info("Claims reconcile run completed",
		zap.Int("users", len(users)), zap.Int("failures", failures))
}

func (j *ClaimsReconcileJob) reconcileUser(ctx context.Context, u *user.User) error {
	siteCount, err := j.sites.CountByOwner(ctx, u.FirebaseUID)
	if err != nil {
		return fmt.Errorf("counting sites: %w", err)
	}

	status := claims.StatusActive
	patch := claims.Patch{
		Plan:                      &u.Plan,
		Status:                    &status,
		MaxSites:                  &u.MaxSites,
		SiteCount:                 &siteCount,
		EmailNotificationsEnabled: &u.EmailNotificationsEnabled,
	}
	// No event message: reconciliation must not pollute the history.
	return j.syncer.SyncAfterEvent(ctx, u.FirebaseUID, claims.Event{}, patch)
}

// Stop gracefully stops the cron scheduler.
func (j *ClaimsReconcileJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping claims reconcile job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Claims reconcile job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Claims reconcile job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
