// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// localpartChars is the set of characters the Matrix spec permits in
// user ID localparts: a-z, 0-9, and the symbols . _ = - /.
var localpartChars [256]bool

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		localpartChars[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		localpartChars[c] = true
	}
	localpartChars['.'] = true
	localpartChars['_'] = true
	localpartChars['='] = true
	localpartChars['-'] = true
	localpartChars['/'] = true
}

// ValidLocalpart reports whether localpart contains only characters
// permitted by the Matrix spec. Used to validate signatory user IDs
// typed into the wallet before they reach the homeserver.
func ValidLocalpart(localpart string) bool {
	if localpart == "" {
		return false
	}
	for i := 0; i < len(localpart); i++ {
		if !localpartChars[localpart[i]] {
			return false
		}
	}
	return true
}

// parseMatrixID extracts localpart and server from @localpart:server.
func parseMatrixID(matrixID string) (localpart, server string, err error) {
	if len(matrixID) < 2 || matrixID[0] != '@' {
		return "", "", fmt.Errorf("invalid Matrix user ID %q: must start with @", matrixID)
	}
	colonIndex := strings.Index(matrixID[1:], ":")
	if colonIndex < 0 {
		return "", "", fmt.Errorf("invalid Matrix user ID %q: missing :server", matrixID)
	}
	colonIndex++ // adjust for [1:] offset
	if colonIndex < 2 {
		return "", "", fmt.Errorf("invalid Matrix user ID %q: empty localpart", matrixID)
	}
	localpart = matrixID[1:colonIndex]
	server = matrixID[colonIndex+1:]
	if server == "" {
		return "", "", fmt.Errorf("invalid Matrix user ID %q: empty server", matrixID)
	}
	return localpart, server, nil
}
