// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1820

// NoDeviceError is returned when no device answers the selection, either
// because the bus saw no presence pulse or because the addressed device is
// gone. It implements onewire.BusError and onewire.NoDevicesError.
type NoDeviceError string

func (e NoDeviceError) Error() string   { return string(e) }
func (e NoDeviceError) BusError() bool  { return true }
func (e NoDeviceError) NoDevices() bool { return true }

// CRCError is returned when a scratchpad read fails its CRC check,
// typically from electrical noise or a marginal connection. The read is
// discarded whole; re-issuing the call is safe. It implements
// onewire.BusError.
type CRCError string

func (e CRCError) Error() string  { return string(e) }
func (e CRCError) BusError() bool { return true }

// DecodeError is returned when a scratchpad passes its CRC check but holds
// values the temperature formula is undefined for.
type DecodeError string

func (e DecodeError) Error() string { return string(e) }
