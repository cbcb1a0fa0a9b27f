// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns job failures into Camunda fail or throw commands.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job with retries for retryable codes and throws a BPMN error otherwise.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if bpmnErr.Retries > 0 && job.Retries > 0 {
		h.failJobWithRetries(ctx, client, job, bpmnErr)
		return
	}
	h.throwBPMNError(ctx, client, job, bpmnErr)
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	// job.Retries is what the engine has left; never raise it.
	retries := int32(bpmnErr.Retries)
	if job.Retries-1 < retries {
		retries = job.Retries - 1
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(bpmnErr.Message)

	vars := errorVariables(bpmnErr)
	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, err = withVars.Send(ctx)
			h.logSendFailure("fail", job, err)
			return
		}
	}
	_, err := cmd.Send(ctx)
	h.logSendFailure("fail", job, err)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	vars := errorVariables(bpmnErr)
	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, err = withVars.Send(ctx)
			h.logSendFailure("throw", job, err)
			return
		}
	}
	_, err := cmd.Send(ctx)
	h.logSendFailure("throw", job, err)
}

// errorVariables returns the JSON process variables for bpmnErr, or "" if they cannot be encoded.
func errorVariables(bpmnErr *BPMNError) string {
	data, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err != nil {
		return ""
	}
	return string(data)
}

// logSendFailure records a command the broker rejected; the job then times out and is redelivered.
func (h *ErrorHandler) logSendFailure(command string, job entities.Job, err error) {
	if err == nil {
		return
	}
	h.logger.Error("job command not delivered", map[string]interface{}{
		"command": command,
		"jobKey":  job.Key,
		"error":   err.Error(),
	})
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
