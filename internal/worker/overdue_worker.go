package worker

import (
	"context"
	"taskManager/internal/logger"
	"taskManager/internal/metrics"
	"time"

	"go.uber.org/zap"
)

const overdueWorkerName = "overdue"

// за один тик обрабатываем не больше стольких пачек, остаток - на следующий
const maxBatchesPerRun = 10

type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
}

// OverdueWorker переводит просроченные pending/in_progress задачи в overdue
type OverdueWorker struct {
	repo      OverdueMarker
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewOverdueWorker(repo OverdueMarker, interval time.Duration, batchSize int) *OverdueWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OverdueWorker{
		repo:      repo,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (w *OverdueWorker) WithClock(now func() time.Time) *OverdueWorker {
	w.now = now
	return w
}

func (w *OverdueWorker) Start(ctx context.Context) {
	run(ctx, overdueWorkerName, w.interval, w.Check)
}

// Check возвращает число задач, переведённых в overdue за этот проход
func (w *OverdueWorker) Check(ctx context.Context) int64 {
	start := time.Now()
	now := w.now()

	var total int64
	for batch := 0; batch < maxBatchesPerRun; batch++ {
		affected, err := w.repo.MarkOverdue(ctx, now, w.batchSize)
		if err != nil {
			metrics.WorkerRunsTotal.WithLabelValues(overdueWorkerName, "error").Inc()
			logger.Error("Worker: Ошибка пометки просроченных задач", err, zap.Int64("marked", total))
			return total
		}
		total += affected
		if affected < int64(w.batchSize) {
			break
		}
	}

	metrics.WorkerRunsTotal.WithLabelValues(overdueWorkerName, "success").Inc()
	metrics.WorkerAffectedRows.WithLabelValues(overdueWorkerName).Add(float64(total))
	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int64("overdue", total),
	)
	return total
}

// run выполняет job сразу и затем по тикеру до отмены ctx
func run(ctx context.Context, name string, interval time.Duration, job func(context.Context) int64) {
	logger.Info("Worker: Запуск", zap.String("worker", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ticker.C:
			job(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Остановка", zap.String("worker", name))
			return
		}
	}
}
