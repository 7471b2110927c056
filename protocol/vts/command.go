/*
DESCRIPTION
  command.go tokenizes VTS control protocol command lines: command verb
  plus a whitespace-separated, double-quote-aware argument list.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vts implements the VTS line-oriented control protocol: command
// tokenization, response formatting, and the 16-byte binary frame header
// that precedes every GETFRAME payload.
package vts

import (
	"strings"
	"unicode"
)

// ParseCommand splits a command line into an uppercased command token and
// its argument list. The remainder after the command is tokenized on
// whitespace, honoring double-quoted substrings: a quote consumes its
// contents verbatim, and an unmatched opening quote consumes the rest of
// the line. An empty (or all-whitespace) line yields ("", nil).
func ParseCommand(line string) (string, []string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", nil
	}

	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i == -1 {
		return strings.ToUpper(trimmed), nil
	}

	cmd := strings.ToUpper(trimmed[:i])
	return cmd, tokenizeArgs(trimmed[i+1:])
}

// tokenizeArgs splits remainder into arguments, honoring double quotes.
func tokenizeArgs(remainder string) []string {
	var args []string
	for {
		remainder = strings.TrimLeftFunc(remainder, unicode.IsSpace)
		if remainder == "" {
			break
		}

		if remainder[0] == '"' {
			rest := remainder[1:]
			end := strings.IndexByte(rest, '"')
			if end == -1 {
				args = append(args, rest)
				break
			}
			args = append(args, rest[:end])
			remainder = rest[end+1:]
			continue
		}

		sp := strings.IndexFunc(remainder, unicode.IsSpace)
		if sp == -1 {
			args = append(args, remainder)
			break
		}
		args = append(args, remainder[:sp])
		remainder = remainder[sp:]
	}
	return args
}
