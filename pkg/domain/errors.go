package domain

import "errors"

// Sentinel errors shared by the fee engine, allocator, split engine and
// reconciliation service. Callers wrap them with fmt.Errorf("...: %w", err)
// and the webapi layer maps them to HTTP status codes.
var (
	// ErrInvalidAmount is returned when a gross amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidDocument is returned for a malformed CPF or CNPJ.
	ErrInvalidDocument = errors.New("invalid CPF/CNPJ document")

	// ErrInsufficientFunds is returned when the total to debit exceeds the
	// account's available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrProviderRejected is returned when the acquirer refuses a charge or
	// transfer request.
	ErrProviderRejected = errors.New("provider rejected the request")

	// ErrNetworkFailure is returned when an outbound provider call times out
	// or fails at the transport level.
	ErrNetworkFailure = errors.New("provider network failure")

	// ErrAuthFailed is returned when provider authentication fails.
	ErrAuthFailed = errors.New("provider authentication failed")

	// ErrAllocationExhausted is returned when the allocator runs out of
	// retry attempts for a colliding transaction id.
	ErrAllocationExhausted = errors.New("transaction id allocation exhausted")

	// ErrBeneficiaryNotFound is returned when a split beneficiary cannot be
	// resolved to an account.
	ErrBeneficiaryNotFound = errors.New("split beneficiary not found")

	// ErrDuplicateExecution is returned when a split execution already
	// exists for a (directive, transaction) pair.
	ErrDuplicateExecution = errors.New("split already executed for transaction")

	// ErrTransactionNotFound is returned when a webhook references an
	// unknown transaction.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAccountNotFound is returned when an account lookup fails.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidTransition is returned when an event targets a state the
	// machine cannot reach from the current one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownProvider is returned when no adapter is registered for the
	// requested provider slug.
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrDuplicateKey is the storage-agnostic translation of a uniqueness
	// constraint violation. Repositories map their driver error to this
	// so the allocator can retry without knowing the storage engine.
	ErrDuplicateKey = errors.New("duplicate key")
)
