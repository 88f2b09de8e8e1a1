package chat

import "errors"

// Turn failure classes. Upstream completion failures are surfaced as the
// completion package's ErrUpstream/ErrProtocol; document lookup failures as
// store.ErrNotFound.
var (
	// ErrInvalidInput indicates a missing message or malformed document ID.
	// Detected before any persistence side effect.
	ErrInvalidInput = errors.New("chat: invalid input")

	// ErrExtraction indicates the document bytes could not be fetched or
	// parsed. The user's message has already been persisted by this point.
	ErrExtraction = errors.New("chat: document extraction failed")

	// ErrStorage indicates the message store was unavailable.
	ErrStorage = errors.New("chat: storage unavailable")
)
