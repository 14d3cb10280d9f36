// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"fmt"
	"sync"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/messaging"
)

// VerifyDevices downloads the current device-key sets for the given
// members and marks every device of every member as verified. All
// verification requests are issued concurrently and joined; a single
// failure fails the whole batch with no partial-success reporting.
func (m *Messenger) VerifyDevices(ctx context.Context, members []ref.UserID) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}
	return m.verifyDeviceBatch(ctx, session, members)
}

func (m *Messenger) verifyDeviceBatch(ctx context.Context, session *messaging.Session, members []ref.UserID) error {
	if len(members) == 0 {
		return nil
	}

	keys, err := session.DownloadKeys(ctx, members)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceVerificationFailed, err)
	}

	type memberDevice struct {
		userID   ref.UserID
		deviceID ref.DeviceID
	}
	var devices []memberDevice
	for _, userID := range members {
		for deviceID := range keys.DeviceKeys[userID] {
			devices = append(devices, memberDevice{userID: userID, deviceID: deviceID})
		}
	}

	errs := make([]error, len(devices))
	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func(i int, device memberDevice) {
			defer wg.Done()
			errs[i] = m.crypto.MarkDeviceVerified(ctx, device.userID, device.deviceID)
		}(i, device)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("%w: device %s of %s: %w",
				ErrDeviceVerificationFailed, devices[i].deviceID, devices[i].userID, err)
		}
	}

	m.logger.Info("signatory devices verified", "members", len(members), "devices", len(devices))
	return nil
}
