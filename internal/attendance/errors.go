package attendance

import "errors"

var (
	// ErrEventEnded rejects any transition attempted after the event window
	// has closed.
	ErrEventEnded = errors.New("event has already ended")
	// ErrEventNotStarted rejects a decline before the event window opens.
	// Joining early is allowed; declining early is not.
	ErrEventNotStarted = errors.New("event has not started yet")
	// ErrAlreadyResponded rejects a decline when a record for the pair
	// already exists, whatever its state.
	ErrAlreadyResponded = errors.New("attendance already recorded for this event")
	// ErrCardNotRegistered means the tapped RFID card maps to no user.
	ErrCardNotRegistered = errors.New("rfid card is not registered to any user")
	// ErrValidation covers malformed input, such as a decline without a reason.
	ErrValidation = errors.New("invalid attendance request")
)
