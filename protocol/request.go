// File: protocol/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Request is the parsed request line.
type Request struct {
	Method  string
	Path    string
	Seconds int
}

// IsGET reports whether raw contains the GET literal anywhere.
func IsGET(raw []byte) bool {
	return bytes.Contains(raw, []byte(MethodGET))
}

// ParseRequest parses raw into a Request. ok is false when raw does not
// contain a GET; in that case the caller must not answer.
// The duration never fails to parse: it falls back to DefaultSeconds.
func ParseRequest(raw []byte) (req Request, ok bool) {
	if len(raw) == 0 || !IsGET(raw) {
		return Request{}, false
	}
	line := string(raw)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Path = fields[1]
	}
	req.Seconds = SecondsFromPath(req.Path)
	return req, true
}

// SecondsFromPath interprets the last "/"-separated segment of path as a
// non-negative number of seconds. Missing, malformed and negative values
// yield DefaultSeconds; values above MaxSeconds are capped.
func SecondsFromPath(path string) int {
	seg := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		seg = path[i+1:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return DefaultSeconds
	}
	if n > MaxSeconds {
		return MaxSeconds
	}
	return n
}

// Response renders the full reply for a request that waited seconds.
func Response(seconds int) []byte {
	return []byte(fmt.Sprintf("%sI slept for %d seconds", StatusOK, seconds))
}
