package mqtt

import "errors"

// ===== Sentinel Errors =====

var (
	// ErrNotConnected is returned when an operation requires an active
	// broker connection and there is none.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnectionFailed is returned when a connection attempt is refused
	// or does not complete within the connect timeout.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrSubscribeFailed is returned when the broker rejects a subscription
	// or the acknowledgement does not arrive in time.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidTopic is returned for empty topics or topics containing
	// wildcard characters where a concrete topic is required.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidQoS is returned when the QoS level is not 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrPayloadTooLarge is returned when a payload exceeds maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")
)
