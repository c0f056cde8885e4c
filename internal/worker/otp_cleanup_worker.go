package worker

import (
	"context"
	"taskManager/internal/logger"
	"taskManager/internal/metrics"
	"time"

	"go.uber.org/zap"
)

const otpCleanupWorkerName = "otp_cleanup"

type OTPPurger interface {
	PurgeOTPs(ctx context.Context, before time.Time) (int64, error)
}

// OTPCleanupWorker удаляет коды, которые истекли или использованы дольше retention назад
type OTPCleanupWorker struct {
	repo      OTPPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewOTPCleanupWorker(repo OTPPurger, interval, retention time.Duration) *OTPCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention < 0 {
		retention = 0
	}
	return &OTPCleanupWorker{
		repo:      repo,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (w *OTPCleanupWorker) WithClock(now func() time.Time) *OTPCleanupWorker {
	w.now = now
	return w
}

func (w *OTPCleanupWorker) Start(ctx context.Context) {
	run(ctx, otpCleanupWorkerName, w.interval, w.Check)
}

func (w *OTPCleanupWorker) Check(ctx context.Context) int64 {
	before := w.now().Add(-w.retention)

	purged, err := w.repo.PurgeOTPs(ctx, before)
	if err != nil {
		metrics.WorkerRunsTotal.WithLabelValues(otpCleanupWorkerName, "error").Inc()
		logger.Error("Worker: Ошибка очистки кодов", err)
		return 0
	}

	metrics.WorkerRunsTotal.WithLabelValues(otpCleanupWorkerName, "success").Inc()
	metrics.WorkerAffectedRows.WithLabelValues(otpCleanupWorkerName).Add(float64(purged))
	logger.Info("Worker: Коды очищены", zap.Int64("purged", purged), zap.Time("before", before))
	return purged
}
