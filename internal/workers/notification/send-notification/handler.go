// internal/workers/notification/send-notification/handler.go
package sendnotification

import (
	"context"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-notification"
)

type Dispatcher interface {
	SendNotification(ctx context.Context, req models.SendRequest) (*models.DispatchResult, error)
}

// RequestDecoder validates job variables as a send request.
type RequestDecoder interface {
	Decode(body []byte) (models.SendRequest, error)
}

type Handler struct {
	config       *Config
	dispatcher   Dispatcher
	decoder      RequestDecoder
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, dispatcher Dispatcher, decoder RequestDecoder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		dispatcher:   dispatcher,
		decoder:      decoder,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	req, err := h.decoder.Decode([]byte(job.Variables))
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	input := &Input{UserID: req.UserID, CompanyID: req.CompanyID, Type: string(req.Type)}
	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.dispatcher.SendNotification(ctx, input.toRequest())
	if err != nil {
		return nil, err
	}

	return &Output{
		NotificationStatus: summarize(result),
		ChannelsSent:       result.ChannelsSent,
		ChannelsSkipped:    result.ChannelsSkipped,
		ChannelsFailed:     result.ChannelsFailed,
		ProcessedAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func summarize(result *models.DispatchResult) string {
	switch {
	case len(result.ChannelsAttempted) == 0:
		return StatusNoChannels
	case len(result.ChannelsFailed) == 0:
		return StatusSent
	case len(result.ChannelsSent) > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"status": output.NotificationStatus,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
