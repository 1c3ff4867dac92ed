// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Minimal HTTP-like wire handling for the timed responder server.
//
// Only the request line is inspected: the request must contain the ASCII
// literal "GET", and the trailing "/"-segment of the path is the number of
// seconds to wait before answering. Anything else about HTTP is ignored.
package protocol
