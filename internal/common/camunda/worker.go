// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"notification-dispatcher/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes, fails or throws for every job it receives.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. timeout is the job lock duration.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive)
	if timeout > 0 {
		step = step.Timeout(timeout)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
	log.Info("worker started", map[string]interface{}{"maxJobsActive": maxJobsActive})
	return w
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
