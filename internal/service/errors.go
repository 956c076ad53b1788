package service

import "errors"

var (
	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrTripNotOwned is returned when the caller does not own the trip.
	ErrTripNotOwned = errors.New("trip not owned by caller")

	// ErrUserHasActiveTrip is returned when a user already has a trip in flight.
	ErrUserHasActiveTrip = errors.New("user already has an active trip")

	// ErrTripNotRecording is returned when points or an end request arrive
	// for a trip that is no longer recording.
	ErrTripNotRecording = errors.New("trip not in recording state")

	// ErrTripNotProcessing is returned when review resolution or cancellation
	// targets a trip outside the processing state.
	ErrTripNotProcessing = errors.New("trip not in processing state")

	// ErrTripNotCompleted is returned when a dispute targets an uncompleted trip.
	ErrTripNotCompleted = errors.New("trip not completed")

	// ErrIllegalTransition is returned for a status change outside the
	// lifecycle state machine.
	ErrIllegalTransition = errors.New("illegal trip status transition")

	// ErrEmptyBatch is returned when a point batch contains no points.
	ErrEmptyBatch = errors.New("point batch is empty")

	// ErrInvalidAmount is returned when a contribution amount is not a
	// positive integer number of cents.
	ErrInvalidAmount = errors.New("invalid contribution amount")

	// ErrAmountTooLarge is returned when a contribution exceeds the
	// per-transaction ceiling.
	ErrAmountTooLarge = errors.New("contribution amount exceeds ceiling")

	// ErrShareFinalized is returned when a mutation targets a share that has
	// already been frozen for payout.
	ErrShareFinalized = errors.New("pool share already finalized")

	// ErrInvalidSafetyFactor is returned when a supplied safety factor falls
	// outside [0, 1].
	ErrInvalidSafetyFactor = errors.New("safety factor must be between 0 and 1")
)
