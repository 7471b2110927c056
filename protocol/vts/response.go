/*
DESCRIPTION
  response.go formats VTS control protocol responses and defines the
  numeric error codes used in ERROR responses.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vts

import "fmt"

// ErrorCode identifies the kind of failure reported in an ERROR response.
type ErrorCode int

// Error codes defined by the VTS control protocol.
const (
	UnknownCommand  ErrorCode = 400
	InvalidArgument ErrorCode = 401
	FileNotFound    ErrorCode = 404
	InternalError   ErrorCode = 500
	NotLoaded       ErrorCode = 501
)

// Response line prefixes.
const (
	OK    = "OK"
	ERROR = "ERROR"
)

// FormatError formats an ERROR response line (no trailing newline).
func FormatError(code ErrorCode, message string) string {
	return fmt.Sprintf("%s %d %s", ERROR, int(code), message)
}

// FormatStatus formats the response body of a STATUS command (no trailing
// newline, no "OK" prefix — callers prepend that).
func FormatStatus(state string, frame, total int) string {
	return fmt.Sprintf("STATUS %s %d %d", state, frame, total)
}

// Truthy and falsy tokens accepted by the LOOP command, per the protocol
// specification.
var (
	loopTruthy = map[string]bool{"ON": true, "TRUE": true, "1": true, "YES": true}
	loopFalsy  = map[string]bool{"OFF": true, "FALSE": true, "0": true, "NO": true}
)

// ParseBool maps a LOOP argument token (already uppercased) to a bool. ok
// is false if the token is neither a recognised truthy nor falsy token.
func ParseBool(token string) (value, ok bool) {
	if loopTruthy[token] {
		return true, true
	}
	if loopFalsy[token] {
		return false, true
	}
	return false, false
}
