package apiclient

// AttemptState tracks where a request is in the refresh-and-replay sequence.
type AttemptState int

const (
	// AttemptInitial is a first send. A 401 here may trigger one refresh.
	AttemptInitial AttemptState = iota
	// AttemptRetried is a request that already spent its refresh, or the
	// refresh call itself. Failures in this state are returned as is.
	AttemptRetried
)

func (s AttemptState) String() string {
	switch s {
	case AttemptInitial:
		return "initial"
	case AttemptRetried:
		return "retried"
	}
	return "unknown"
}

// attempt pairs a request with its state and the bearer token it was last
// stamped with.
type attempt struct {
	req   *Request
	state AttemptState
	token string
}
