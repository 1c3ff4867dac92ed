// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Wire constants

package protocol

const (
	// MethodGET is the only method the server answers.
	MethodGET = "GET"

	// StatusOK precedes every response body.
	StatusOK = "HTTP/1.1 200 OK\r\n\r\n"

	// DefaultSeconds is used when the path carries no usable duration.
	DefaultSeconds = 1

	// MaxSeconds caps a requested duration.
	MaxSeconds = 24 * 60 * 60

	// ReadBufferSize is the default number of bytes read per request.
	ReadBufferSize = 1024
)
