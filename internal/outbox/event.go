package outbox

import (
	"encoding/json"
	"strconv"
)

// Integration event types. The Kafka topic name equals EventType.
const (
	EventAppointmentCreated = "scheduling.appointment.created.v1"
	EventTimeBlockCreated   = "scheduling.timeblock.created.v1"
	EventOrderCreated       = "billing.order.created.v1"
	EventPaymentCompleted   = "billing.payment.completed.v1"
)

// Event is the domain event envelope written to the outbox table in the
// same transaction as the state change it announces.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewEvent builds an envelope for an integer-keyed aggregate; payload must
// be JSON-marshalable.
func NewEvent(aggregateType string, aggregateID int64, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   strconv.FormatInt(aggregateID, 10),
		EventType:     eventType,
		Payload:       body,
	}, nil
}
