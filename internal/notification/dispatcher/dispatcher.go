// Package dispatcher routes a notification request to every channel the type,
// the user and the company all allow, delivering to each channel concurrently.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/delivery"
	"notification-dispatcher/internal/directory"
	"notification-dispatcher/internal/models"
	"notification-dispatcher/internal/notification/channels"
	"notification-dispatcher/internal/notification/descriptors"
	"notification-dispatcher/internal/notification/render"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultChannelTimeout bounds a single channel task.
const DefaultChannelTimeout = 10 * time.Second

// DescriptorLookup finds the descriptor for a notification type.
type DescriptorLookup interface {
	Get(t models.NotificationType) (descriptors.Descriptor, error)
}

// TemplateResolver returns the template for a channel, or nil when none exists.
type TemplateResolver interface {
	Resolve(ctx context.Context, t models.NotificationType, ch models.ChannelType, companyID string) (*models.Template, error)
}

// ChannelLookup finds the implementation of a channel type.
type ChannelLookup interface {
	Get(ch models.ChannelType) (channels.Channel, error)
}

// InboxReader lists a user's in-app notifications, newest first.
type InboxReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.UINotification, error)
}

// Observer receives one record per SendNotification call.
type Observer interface {
	RecordDispatch(ctx context.Context, notificationType, outcome string, duration time.Duration)
}

type Config struct {
	ChannelTimeout time.Duration
}

// Deps are the collaborators of a Dispatcher. Recorder and Observer may be nil.
type Deps struct {
	Descriptors DescriptorLookup
	Users       directory.UserLookup
	Companies   directory.CompanyLookup
	Templates   TemplateResolver
	Channels    ChannelLookup
	Inbox       InboxReader
	Recorder    delivery.Recorder
	Observer    Observer
}

type Dispatcher struct {
	config Config
	deps   Deps
	tracer trace.Tracer
	logger logger.Logger
}

func New(config Config, deps Deps, log logger.Logger) *Dispatcher {
	if config.ChannelTimeout <= 0 {
		config.ChannelTimeout = DefaultChannelTimeout
	}
	if deps.Recorder == nil {
		deps.Recorder = delivery.NopRecorder{}
	}
	return &Dispatcher{
		config: config,
		deps:   deps,
		tracer: otel.Tracer("notification-dispatcher/dispatcher"),
		logger: log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// SendNotification delivers req over every eligible channel. It fails only when the
// type, user or company cannot be resolved; channel failures are recorded in the result.
func (d *Dispatcher) SendNotification(ctx context.Context, req models.SendRequest) (*models.DispatchResult, error) {
	ctx, span := d.tracer.Start(ctx, "SendNotification", trace.WithAttributes(
		attribute.String("notification.type", string(req.Type)),
		attribute.String("notification.user_id", req.UserID),
		attribute.String("notification.company_id", req.CompanyID),
	))
	defer span.End()

	log := logger.WithTrace(ctx, d.logger).WithFields(map[string]interface{}{
		"userId":    req.UserID,
		"companyId": req.CompanyID,
		"type":      string(req.Type),
	})
	log.Info("processing notification request", nil)

	start := time.Now()
	result, err := d.send(ctx, req, log)
	if err != nil {
		outcome := "error"
		if errors.IsNotFound(err) {
			outcome = "not_found"
		}
		d.observe(ctx, req.Type, outcome, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("failed to process notification request", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": string(errors.CodeOf(err)),
		})
		return nil, err
	}

	d.observe(ctx, req.Type, "dispatched", start)
	log.Info("completed notification request", map[string]interface{}{
		"sent":    len(result.ChannelsSent),
		"skipped": len(result.ChannelsSkipped),
		"failed":  len(result.ChannelsFailed),
	})
	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, req models.SendRequest, log logger.Logger) (*models.DispatchResult, error) {
	desc, err := d.deps.Descriptors.Get(req.Type)
	if err != nil {
		return nil, err
	}

	user, company, err := d.lookup(ctx, req.UserID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	result := newResult(req)

	targets := SubscribedChannels(desc.DefaultChannels(), user.SubscribeChannels, company.SubscribeChannels)
	log.Info("resolved target channels", map[string]interface{}{
		"defaultChannels": desc.DefaultChannels(),
		"channels":        targets,
	})
	if len(targets) == 0 {
		log.Info("no subscribed channels, nothing to send", nil)
		return result, nil
	}

	tmplCtx := desc.TemplateContext(user, company)

	// Channel tasks outlive a cancelled caller; each has its own deadline.
	taskCtx := context.WithoutCancel(ctx)

	outcomes := make([]models.ChannelOutcome, len(targets))
	var wg sync.WaitGroup
	for i, ch := range targets {
		wg.Add(1)
		go func(i int, ch models.ChannelType) {
			defer wg.Done()
			outcomes[i] = d.deliver(taskCtx, req.Type, ch, user, company, tmplCtx, log)
			d.record(taskCtx, req, company.ID, outcomes[i], log)
		}(i, ch)
	}
	wg.Wait()

	for _, o := range outcomes {
		result.ChannelsAttempted = append(result.ChannelsAttempted, o.Channel)
		switch o.Status {
		case models.DeliverySent:
			result.ChannelsSent = append(result.ChannelsSent, o.Channel)
		case models.DeliverySkipped:
			result.ChannelsSkipped = append(result.ChannelsSkipped, o.Channel)
		default:
			result.ChannelsFailed = append(result.ChannelsFailed, o.Channel)
		}
	}

	return result, nil
}

func (d *Dispatcher) observe(ctx context.Context, t models.NotificationType, outcome string, start time.Time) {
	metrics.NotificationsRequested.WithLabelValues(string(t), outcome).Inc()
	if d.deps.Observer != nil {
		d.deps.Observer.RecordDispatch(ctx, string(t), outcome, time.Since(start))
	}
}

// lookup fetches the user and the company concurrently.
func (d *Dispatcher) lookup(ctx context.Context, userID, companyID string) (models.User, models.Company, error) {
	var (
		user    models.User
		company models.Company
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := d.deps.Users.GetUser(gctx, userID)
		if err != nil {
			return classify("user lookup failed", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		c, err := d.deps.Companies.GetCompany(gctx, companyID)
		if err != nil {
			return classify("company lookup failed", err)
		}
		company = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.User{}, models.Company{}, err
	}
	return user, company, nil
}

// deliver runs resolve, render and send for one channel. It never panics.
func (d *Dispatcher) deliver(
	ctx context.Context,
	notificationType models.NotificationType,
	ch models.ChannelType,
	user models.User,
	company models.Company,
	tmplCtx map[string]any,
	log logger.Logger,
) (outcome models.ChannelOutcome) {
	start := time.Now()
	outcome = models.ChannelOutcome{Channel: ch}

	ctx, cancel := context.WithTimeout(ctx, d.config.ChannelTimeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "deliver", trace.WithAttributes(attribute.String("notification.channel", string(ch))))
	defer span.End()

	log = log.WithFields(map[string]interface{}{"channel": string(ch)})

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.DeliveryFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
		outcome.Duration = time.Since(start)

		metrics.ChannelDeliveries.WithLabelValues(string(ch), outcome.Status).Inc()
		metrics.ChannelDeliveryDuration.WithLabelValues(string(ch)).Observe(outcome.Duration.Seconds())

		switch outcome.Status {
		case models.DeliverySent:
			log.Info("notification sent", nil)
		case models.DeliverySkipped:
			log.Warn("template not found, skipping channel", nil)
		default:
			span.SetStatus(codes.Error, outcome.Error)
			log.Error("failed to send via channel", map[string]interface{}{"error": outcome.Error})
		}
	}()

	fail := func(err error) models.ChannelOutcome {
		span.RecordError(err)
		outcome.Status = models.DeliveryFailed
		outcome.Error = err.Error()
		return outcome
	}

	tmpl, err := d.deps.Templates.Resolve(ctx, notificationType, ch, company.ID)
	if err != nil {
		return fail(err)
	}
	if tmpl == nil {
		outcome.Status = models.DeliverySkipped
		return outcome
	}

	impl, err := d.deps.Channels.Get(ch)
	if err != nil {
		return fail(err)
	}

	payload := channels.Payload{Content: render.Render(tmpl.Content, tmplCtx)}
	if tmpl.Subject != "" {
		payload.Subject = render.Render(tmpl.Subject, tmplCtx)
	}

	if err := impl.Send(ctx, user, payload); err != nil {
		return fail(err)
	}

	outcome.Status = models.DeliverySent
	return outcome
}

// record writes the audit entry for one channel under its own channel timeout.
func (d *Dispatcher) record(ctx context.Context, req models.SendRequest, companyID string, o models.ChannelOutcome, log logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, d.config.ChannelTimeout)
	defer cancel()

	err := d.deps.Recorder.Record(ctx, delivery.Attempt{
		UserID:     req.UserID,
		CompanyID:  companyID,
		Type:       req.Type,
		Channel:    o.Channel,
		Status:     o.Status,
		Error:      o.Error,
		DurationMs: o.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to record delivery attempt", map[string]interface{}{
			"channel": string(o.Channel),
			"error":   err.Error(),
		})
	}
}

// GetUINotifications lists a user's in-app notifications, newest first.
// The inbox is only read once the user is known to exist.
func (d *Dispatcher) GetUINotifications(ctx context.Context, userID string) ([]models.UINotification, error) {
	if _, err := d.deps.Users.GetUser(ctx, userID); err != nil {
		return nil, classify("user lookup failed", err)
	}

	list, err := d.deps.Inbox.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to retrieve notifications", err)
	}
	if list == nil {
		list = []models.UINotification{}
	}
	return list, nil
}

// SubscribedChannels keeps the defaults, in order, that both subscription sets contain.
func SubscribedChannels(defaults, userChannels, companyChannels []models.ChannelType) []models.ChannelType {
	userAllowed := make(map[models.ChannelType]bool, len(userChannels))
	for _, ch := range userChannels {
		userAllowed[ch] = true
	}
	companyAllowed := make(map[models.ChannelType]bool, len(companyChannels))
	for _, ch := range companyChannels {
		companyAllowed[ch] = true
	}

	out := make([]models.ChannelType, 0, len(defaults))
	for _, ch := range defaults {
		if userAllowed[ch] && companyAllowed[ch] {
			out = append(out, ch)
		}
	}
	return out
}

// classify keeps taxonomy errors and wraps anything else as INTERNAL_ERROR.
func classify(message string, err error) error {
	if _, ok := errors.AsStandardError(err); ok {
		return err
	}
	return errors.NewInternalError(message, err)
}

func newResult(req models.SendRequest) *models.DispatchResult {
	return &models.DispatchResult{
		UserID:            req.UserID,
		CompanyID:         req.CompanyID,
		Type:              req.Type,
		ChannelsAttempted: []models.ChannelType{},
		ChannelsSent:      []models.ChannelType{},
		ChannelsSkipped:   []models.ChannelType{},
		ChannelsFailed:    []models.ChannelType{},
	}
}
