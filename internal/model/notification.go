package model

import (
	"fmt"
	"time"
)

// OutcomeKind classifies one notification send attempt.
type OutcomeKind string

const (
	OutcomeDelivered            OutcomeKind = "delivered"
	OutcomeRejected             OutcomeKind = "rejected"
	OutcomeTransientServerFault OutcomeKind = "transient_server_fault"
	OutcomeTimedOut             OutcomeKind = "timed_out"
	OutcomeNetworkError         OutcomeKind = "network_error"
)

// Outcome is the classified result of one send attempt. It is never persisted.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int    // 0 when no response was received
	Detail     string // rejection reason or transport error detail
	At         time.Time
}

func (o Outcome) Delivered() bool {
	return o.Kind == OutcomeDelivered
}

func (o Outcome) String() string {
	if o.Detail == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Detail)
}

// Trigger names the event that caused a send attempt.
type Trigger string

const (
	TriggerScheduled       Trigger = "scheduled"
	TriggerBirthdayChanged Trigger = "birthday_changed"
)

// OutcomeEvent is the Kafka record published after each attempt.
type OutcomeEvent struct {
	ID         string      `json:"id"`
	FullName   string      `json:"full_name"`
	Trigger    Trigger     `json:"trigger"`
	Outcome    OutcomeKind `json:"outcome"`
	StatusCode int         `json:"status_code,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NotificationPayload is the body posted to the notification endpoint.
// Email holds the user's full name.
type NotificationPayload struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}
