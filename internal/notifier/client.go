package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samims/birthday/internal/clock"
	"github.com/samims/birthday/internal/config"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/pkg/tracing"
)

// Sender makes one notification attempt for a user and classifies the result.
type Sender interface {
	Send(ctx context.Context, user model.User) model.Outcome
}

// HTTPSender posts the notification payload to the external endpoint.
// It does not retry and it does not log.
type HTTPSender struct {
	endpoint string
	client   *http.Client
	faults   FaultPolicy
	clock    clock.Clock
	tracer   *tracing.Tracer
}

func NewHTTPSender(cfg config.NotifierConfig, faults FaultPolicy, clk clock.Clock, tracer *tracing.Tracer) *HTTPSender {
	return &HTTPSender{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		faults:   faults,
		clock:    clk,
		tracer:   tracer,
	}
}

// Payload builds the request body for a user.
func Payload(user model.User) model.NotificationPayload {
	return model.NotificationPayload{
		Email:   user.FullName,
		Message: fmt.Sprintf("Hey, %s, %s", user.FullName, user.Message()),
	}
}

func (s *HTTPSender) Send(ctx context.Context, user model.User) model.Outcome {
	ctx, span := s.tracer.StartClientSpan(ctx, "notifier.Send",
		attribute.String(tracing.AttrHTTPMethod, http.MethodPost),
		attribute.String(tracing.AttrHTTPURL, s.endpoint),
		attribute.String(tracing.AttrUserFullName, user.FullName),
	)
	defer span.End()

	outcome := s.send(ctx, user)
	span.SetAttributes(attribute.String(tracing.AttrNotificationOutcome, string(outcome.Kind)))
	if outcome.StatusCode != 0 {
		span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, outcome.StatusCode))
	}
	if !outcome.Delivered() {
		s.tracer.RecordError(span, errors.New(outcome.String()))
	}
	return outcome
}

func (s *HTTPSender) send(ctx context.Context, user model.User) model.Outcome {
	body, err := json.Marshal(Payload(user))
	if err != nil {
		return s.outcome(model.OutcomeNetworkError, 0, fmt.Sprintf("encode payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return s.outcome(model.OutcomeNetworkError, 0, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return s.outcome(model.OutcomeTimedOut, 0, err.Error())
		}
		return s.outcome(model.OutcomeNetworkError, 0, err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return s.outcome(model.OutcomeDelivered, resp.StatusCode, "")
	case http.StatusBadRequest:
		return s.outcome(model.OutcomeRejected, resp.StatusCode, readReason(resp.Body))
	case http.StatusInternalServerError:
		if s.faults.ServerFault() {
			return s.outcome(model.OutcomeTransientServerFault, resp.StatusCode, "")
		}
		return s.outcome(model.OutcomeDelivered, resp.StatusCode, "")
	default:
		return s.outcome(model.OutcomeNetworkError, resp.StatusCode,
			fmt.Sprintf("unexpected status code %d", resp.StatusCode))
	}
}

func (s *HTTPSender) outcome(kind model.OutcomeKind, status int, detail string) model.Outcome {
	return model.Outcome{
		Kind:       kind,
		StatusCode: status,
		Detail:     detail,
		At:         s.clock.Now(),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readReason returns at most 512 bytes of the rejection body.
func readReason(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(b) == 0 {
		return "bad request"
	}
	return strings.TrimSpace(string(b))
}
