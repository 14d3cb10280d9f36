// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/lib/secret"
	"github.com/Asmadek/omni-desktop/mst"
	"github.com/Asmadek/omni-desktop/signing"
)

// readPassword reads the login password: from the file named by
// passwordFile ("-" means stdin), or interactively when no file is
// given.
func readPassword(passwordFile string) (*secret.Buffer, error) {
	if passwordFile != "" {
		return secret.ReadFromPath(passwordFile)
	}
	return secret.Prompt("Password: ")
}

// consoleTransport runs the signing round trip over the terminal
// instead of a QR scanner: the encoded request is printed as hex for
// the operator to relay to the cold wallet, and the signature is read
// back from stdin.
type consoleTransport struct{}

func (consoleTransport) Exchange(ctx context.Context, request signing.Request) (signing.Result, error) {
	encoded, err := signing.EncodeRequest(request)
	if err != nil {
		return signing.Result{}, err
	}
	fmt.Fprintf(os.Stderr, "Signing request for %s:\n%s\n", request.Address, hex.EncodeToString(encoded))
	fmt.Fprint(os.Stderr, "Signature (0x-hex): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return signing.Result{}, fmt.Errorf("reading signature: %w", err)
		}
		return signing.Result{}, fmt.Errorf("no signature entered")
	}
	signature := strings.TrimSpace(scanner.Text())
	if signature == "" {
		return signing.Result{}, fmt.Errorf("no signature entered")
	}
	return signing.Result{ID: request.ID, Signature: signature}, nil
}

// parseSignatories parses repeated --signatory values of the form
// "matrixID=networkAddress". The entry whose Matrix ID matches
// inviter is marked as the room creator.
func parseSignatories(raw []string, inviter string) ([]mst.Signatory, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one --signatory is required")
	}

	signatories := make([]mst.Signatory, 0, len(raw))
	inviterSeen := false
	for _, entry := range raw {
		matrixPart, networkPart, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("signatory %q: want matrixID=networkAddress", entry)
		}
		userID, err := ref.ParseUserID(matrixPart)
		if err != nil {
			return nil, fmt.Errorf("signatory %q: %w", entry, err)
		}
		isInviter := matrixPart == inviter
		inviterSeen = inviterSeen || isInviter
		signatories = append(signatories, mst.Signatory{
			MatrixAddress:  userID,
			NetworkAddress: networkPart,
			IsInviter:      isInviter,
		})
	}
	if !inviterSeen {
		return nil, fmt.Errorf("--inviter %q does not match any --signatory", inviter)
	}
	return signatories, nil
}
