// Package services contains the application layer between HTTP transport
// and the repository. This file defines service-level sentinel errors so
// handlers can map predictable failures to HTTP results without inspecting
// driver errors.
package services

import "errors"

var (
	// ErrConversationNotFound indicates the referenced conversation id
	// does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates the referenced message id does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyContent indicates message content was empty or whitespace.
	ErrEmptyContent = errors.New("message content must not be empty")

	// ErrEmptyTitle indicates a rename with a blank title. Creation defaults
	// a blank title instead; only renames reject it.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrContentTooLong indicates message content exceeded the boundary cap.
	ErrContentTooLong = errors.New("message content exceeds maximum length")

	// ErrInvalidMessageType indicates a type outside the closed
	// user/ai/error set.
	ErrInvalidMessageType = errors.New("invalid message type")

	// ErrEmptySearchQuery indicates a blank search term.
	ErrEmptySearchQuery = errors.New("search query must not be empty")
)
