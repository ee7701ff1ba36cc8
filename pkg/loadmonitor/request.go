package loadmonitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction is the sense of a scale request.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Event names as seen by the control plane.
const (
	EventScaleUp   = "request_scale_up"
	EventScaleDown = "request_scale_down"
)

// Decision outcomes reported to the Recorder.
const (
	OutcomeSubmitted  = "submitted"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
)

// Event returns the control-plane event name for d.
func (d Direction) Event() string {
	if d == DirectionDown {
		return EventScaleDown
	}
	return EventScaleUp
}

// ScaleRequest is a scale intent emitted by the monitor.
type ScaleRequest struct {
	Direction   Direction
	ServiceType string
	ServiceID   string
	Reason      string
	// JobID is "auto-scale-<direction>-<serviceType>-<serviceId>-<epochMillis>"
	// and is used as the queue idempotency key.
	JobID string
	// RequestID is a name-based UUID derived from JobID.
	RequestID   string
	RequestedAt time.Time
}

// Payload is the wire body submitted to the control plane.
type Payload struct {
	Event string      `json:"event"`
	Data  PayloadData `json:"data"`
}

// PayloadData identifies the service to scale and why.
type PayloadData struct {
	ServiceType string `json:"serviceType"`
	ServiceID   string `json:"serviceId"`
	Reason      string `json:"reason"`
}

// NewScaleRequest builds a request whose identifiers depend only on its
// arguments, so re-emitting the same intent yields the same JobID.
func NewScaleRequest(dir Direction, serviceType, serviceID, reason string, at time.Time) ScaleRequest {
	jobID := JobID(dir, serviceType, serviceID, at)
	return ScaleRequest{
		Direction:   dir,
		ServiceType: serviceType,
		ServiceID:   serviceID,
		Reason:      reason,
		JobID:       jobID,
		RequestID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(jobID)).String(),
		RequestedAt: at,
	}
}

// JobID formats the queue job identifier for a request.
func JobID(dir Direction, serviceType, serviceID string, at time.Time) string {
	return fmt.Sprintf("auto-scale-%s-%s-%s-%d", dir, serviceType, serviceID, at.UnixMilli())
}

// Payload returns the wire body for r.
func (r ScaleRequest) Payload() Payload {
	return Payload{
		Event: r.Direction.Event(),
		Data: PayloadData{
			ServiceType: r.ServiceType,
			ServiceID:   r.ServiceID,
			Reason:      r.Reason,
		},
	}
}
