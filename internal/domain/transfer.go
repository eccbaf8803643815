package domain

// TransferIntent is a validated transfer request derived from free text.
// It is only ever constructed by the intent extractor or reconstructed from a
// stored pending entry, and is immutable once created.
type TransferIntent struct {
	Amount    string
	Token     string
	Recipient string
}

// OutcomeKind classifies the result of handing an intent to the execution
// backend.
type OutcomeKind int

const (
	// OutcomeSuccess means the backend accepted the transfer and returned a
	// transaction reference.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeInsufficientFunds means the backend accepted the request but
	// returned no transaction reference, its documented signal for an
	// underfunded wallet.
	OutcomeInsufficientFunds

	// OutcomeRemoteFailure means the backend answered with a non-success
	// status.
	OutcomeRemoteFailure

	// OutcomeUnreachable means the backend could not be reached at all,
	// including timeouts.
	OutcomeUnreachable
)

// DispatchOutcome is the classified result of a dispatch call. Reference is
// set for OutcomeSuccess; Detail carries the raw response body or transport
// error for the failure kinds.
type DispatchOutcome struct {
	Kind      OutcomeKind
	Reference string
	Detail    string
}
