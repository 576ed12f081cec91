// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1820

import (
	"errors"
	"fmt"
	"testing"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewiretest"
)

// TestDeciCelsius checks the fixed-point conversion, including its exact
// truncation behavior, against hand-computed values.
func TestDeciCelsius(t *testing.T) {
	var testData = []struct {
		scratchpad Scratchpad
		expected   int
	}{
		// 25.0°C: 0x32*500 - 250 + 1000*(16-12)/16 = 25000.
		{Scratchpad{0x32, 0x00, 0x4B, 0x46, 0xFF, 0xFF, 0x0C, 0x10, 0x6B}, 250},
		// Same reading with different threshold bytes; the temperature is a
		// function of bytes 0, 1, 6 and 7 only.
		{Scratchpad{0x32, 0x00, 0x85, 0xC6, 0xFF, 0xFF, 0x0C, 0x10, 0x2C}, 250},
		// Negative: byte 1 nonzero flips the coarse value.
		{Scratchpad{0x91, 0x01, 0x4B, 0x46, 0xFF, 0xFF, 0x0C, 0x10, 0xA9}, -725},
		// 85°C, the power-up value.
		{Scratchpad{0xAA, 0x00, 0x4B, 0x46, 0xFF, 0xFF, 0x0C, 0x10, 0x87}, 850},
		// Count remain raises the reading by a fraction of a degree:
		// 0x33*500 - 250 + 1000*(16-11)/16 = 25562, truncated to 255.
		{Scratchpad{0x33, 0x00, 0x4B, 0x46, 0xFF, 0xFF, 0x0B, 0x10, 0x46}, 255},
		// 0x01*500 - 250 + 1000*(16-4)/16 = 1000.
		{Scratchpad{0x01, 0x00, 0x4B, 0x46, 0xFF, 0xFF, 0x04, 0x10, 0x24}, 10},
	}
	for _, entry := range testData {
		t.Run(fmt.Sprintf("%d", entry.expected), func(st *testing.T) {
			deci, err := entry.scratchpad.DeciCelsius()
			if err != nil {
				st.Fatal(err)
			}
			if deci != entry.expected {
				st.Errorf("expected %d, got %d", entry.expected, deci)
			}
		})
	}
}

// TestDeciCelsius_zeroCount verifies the guard on the count-per-degree
// divisor: a degenerate scratchpad must produce an error, not a panic.
func TestDeciCelsius_zeroCount(t *testing.T) {
	spad := Scratchpad{0x32, 0x00, 0x4B, 0x46, 0xFF, 0xFF, 0x0C, 0x00, 0xF6}
	_, err := spad.DeciCelsius()
	var de DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if _, err := spad.Temperature(); err == nil {
		t.Fatal("expected Temperature to fail too")
	}
}

func TestThresholds(t *testing.T) {
	var testData = []struct {
		th, tl    byte
		high, low int
	}{
		{0x4B, 0x46, 75, 70},
		{0x85, 0xC6, -5, -70},
		{0x00, 0x80, 0, 0},
		{0x7F, 0xFF, 127, -127},
	}
	for _, entry := range testData {
		spad := Scratchpad{0, 0, entry.th, entry.tl}
		high, low := spad.Thresholds()
		if high != entry.high || low != entry.low {
			t.Errorf("thresholds of (%#02x, %#02x): expected (%d, %d), got (%d, %d)",
				entry.th, entry.tl, entry.high, entry.low, high, low)
		}
	}
}

func TestThreshold_roundTrip(t *testing.T) {
	for deg := -127; deg <= 127; deg++ {
		if got := decodeThreshold(encodeThreshold(deg)); got != deg {
			t.Fatalf("%d does not round-trip, got %d", deg, got)
		}
	}
}

// TestReadScratchpad_bitFlips corrupts every bit of a known-good scratchpad
// in turn and expects each read to be rejected.
func TestReadScratchpad_bitFlips(t *testing.T) {
	good := []uint8{0x32, 0x0, 0x4b, 0x46, 0xff, 0xff, 0xc, 0x10, 0x6b}
	for i := range good {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]uint8, len(good))
			copy(corrupted, good)
			corrupted[i] ^= 1 << uint(bit)
			ops := []onewiretest.IO{
				{W: matchROM(0xbe), R: corrupted},
			}
			bus := onewiretest.Playback{Ops: ops}
			dev, err := New(&bus, testAddr)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := dev.readScratchpad(); err == nil {
				t.Fatalf("byte %d bit %d: corrupted scratchpad accepted", i, bit)
			}
			if err := bus.Close(); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestReadScratchpad(t *testing.T) {
	ops := []onewiretest.IO{
		{
			W: matchROM(0xbe),
			R: []uint8{0x32, 0x0, 0x4b, 0x46, 0xff, 0xff, 0xc, 0x10, 0x6b},
		},
	}
	bus := onewiretest.Playback{Ops: ops}
	dev, err := New(&bus, testAddr)
	if err != nil {
		t.Fatal(err)
	}
	spad, err := dev.readScratchpad()
	if err != nil {
		t.Fatal(err)
	}
	expected := Scratchpad{0x32, 0x0, 0x4b, 0x46, 0xff, 0xff, 0xc, 0x10, 0x6b}
	if spad != expected {
		t.Errorf("expected %#v, got %#v", expected, spad)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

var _ onewire.BusError = CRCError("")
var _ onewire.BusError = NoDeviceError("")
