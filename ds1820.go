// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1820

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/physic"
)

// Broadcast addresses every device on the bus by skipping ROM selection.
//
// Commands that read from the device may only use it when a single device is
// present, otherwise the responses collide on the line.
const Broadcast onewire.Address = 0

// Family code of the specific device type.
type Family byte

func (f Family) String() string {
	switch f {
	case DS1820:
		return "DS1820"
	default:
		return "unknown"
	}
}

// DS1820 is the family code shared by the DS1820 and DS18S20.
const DS1820 Family = 0x10

// Command bytes understood by the device, datasheet p.2.
const (
	cmdConvert         = 0x44 // start temperature conversion
	cmdWriteScratchpad = 0x4e // write TH and TL threshold bytes
	cmdCopyScratchpad  = 0x48 // copy thresholds to EEPROM
	cmdReadScratchpad  = 0xbe // read the 9 scratchpad bytes
	cmdRecallEEPROM    = 0xb8 // recall thresholds from EEPROM
	cmdReadPowerSupply = 0xb4 // read parasite power status bit

	cmdMatchROM = 0x55
	cmdSkipROM  = 0xcc
)

// conversionTime is how long a temperature conversion takes. The datasheet
// guarantees completion within 500ms; 750ms is the customary margin.
const conversionTime = 750 * time.Millisecond

// storeTime is how long the strong pull-up must be held after a copy
// scratchpad command so the EEPROM write completes.
const storeTime = 10 * time.Millisecond

// PowerType describes how a device is powered.
type PowerType int

const (
	// Parasite means the device runs off charge scavenged from the data line.
	Parasite PowerType = iota
	// External means the device has its own supply pin connected.
	External
)

func (p PowerType) String() string {
	switch p {
	case Parasite:
		return "parasite"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// New returns an object that communicates over 1-wire to the DS1820 sensor
// with the specified 64-bit address.
//
// Passing Broadcast as the address skips ROM selection on every command,
// which is only valid when a single device is on the bus.
//
// New performs no bus I/O; the underlying bus resets the line and checks for
// a presence pulse at the start of every transaction.
func New(o onewire.Bus, addr onewire.Address) (*Dev, error) {
	if addr != Broadcast && Family(addr&0xff) != DS1820 {
		return nil, fmt.Errorf("ds1820: address %#016x is not family 0x10", uint64(addr))
	}
	return &Dev{bus: o, addr: addr}, nil
}

// Dev is a handle to a Dallas Semi / Maxim DS1820 temperature sensor on a
// 1-wire bus.
//
// All methods are synchronous and perform a single bus transaction. The
// driver never retries: a caller that wants to ride out line noise re-issues
// the call after a CRCError.
type Dev struct {
	bus  onewire.Bus     // 1-wire bus the device sits on
	addr onewire.Address // 64-bit ROM code, or Broadcast
}

func (d *Dev) Family() Family {
	return Family(d.addr & 0xff)
}

func (d *Dev) String() string {
	if d.addr == Broadcast {
		return "DS1820{" + d.bus.String() + "(broadcast)}"
	}
	return fmt.Sprintf("DS1820{%s(%#016x)}", d.bus, uint64(d.addr))
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

// Convert starts a temperature conversion on the device and leaves the bus
// in strong pull-up mode to power it.
//
// The caller must wait at least 500ms before reading the result with
// LastTemp. Any transaction on the bus releases the strong pull-up, so
// nothing else may be issued during the wait.
func (d *Dev) Convert() error {
	return d.bus.Tx(d.frame(cmdConvert), nil, onewire.StrongPullup)
}

// LastTemp reads the temperature resulting from the last conversion from the
// device.
//
// It is useful in combination with Convert or ConvertAll.
func (d *Dev) LastTemp() (physic.Temperature, error) {
	spad, err := d.readScratchpad()
	if err != nil {
		return 0, err
	}
	return spad.Temperature()
}

// DeciCelsius reads the temperature resulting from the last conversion in
// tenths of a degree Celsius, e.g. 235 for 23.5°C.
//
// This is the exact fixed-point value produced by the device's count
// register correction, with no unit conversion applied.
func (d *Dev) DeciCelsius() (int, error) {
	spad, err := d.readScratchpad()
	if err != nil {
		return 0, err
	}
	return spad.DeciCelsius()
}

// Sense implements physic.SenseEnv.
//
// It starts a conversion, sleeps for the conversion time and reads the
// result back.
func (d *Dev) Sense(e *physic.Env) error {
	if err := d.Convert(); err != nil {
		return err
	}
	sleep(conversionTime)
	t, err := d.LastTemp()
	if err != nil {
		return err
	}
	e.Temperature = t
	return nil
}

// SenseContinuous implements physic.SenseEnv.
func (d *Dev) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("ds1820: not implemented")
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 10
}

// SetAlarm writes the high and low alarm thresholds, in degrees Celsius, to
// the device's scratchpad.
//
// Both thresholds must be in the range -127..127. The values are volatile
// until persisted with StoreConfig.
func (d *Dev) SetAlarm(high, low int) error {
	if high < -127 || high > 127 || low < -127 || low > 127 {
		return errors.New("ds1820: alarm threshold out of range -127..127")
	}
	return d.bus.Tx(d.frame(cmdWriteScratchpad, encodeThreshold(high), encodeThreshold(low)), nil, onewire.WeakPullup)
}

// Alarm reads the high and low alarm thresholds, in degrees Celsius, from
// the device's scratchpad.
func (d *Dev) Alarm() (high, low int, err error) {
	spad, err := d.readScratchpad()
	if err != nil {
		return 0, 0, err
	}
	high, low = spad.Thresholds()
	return high, low, nil
}

// StoreConfig copies the alarm thresholds from the scratchpad to the
// device's EEPROM.
//
// The bus is held in strong pull-up mode for 10ms to power the write.
func (d *Dev) StoreConfig() error {
	if err := d.bus.Tx(d.frame(cmdCopyScratchpad), nil, onewire.StrongPullup); err != nil {
		return err
	}
	sleep(storeTime)
	return nil
}

// RecallConfig loads the alarm thresholds from the device's EEPROM back into
// the scratchpad. The device also does this on its own at power-up.
func (d *Dev) RecallConfig() error {
	return d.bus.Tx(d.frame(cmdRecallEEPROM), nil, onewire.WeakPullup)
}

// PowerType reports whether the device is parasite or externally powered.
//
// When addressed with Broadcast it reports Parasite if at least one device
// on the bus is parasite powered, since those devices pull the response bit
// low.
func (d *Dev) PowerType() (PowerType, error) {
	var b [1]byte
	if err := d.bus.Tx(d.frame(cmdReadPowerSupply), b[:], onewire.WeakPullup); err != nil {
		return 0, err
	}
	if b[0] == 0 {
		return Parasite, nil
	}
	return External, nil
}

// ConvertAll performs a conversion on all devices on the bus.
//
// During the conversion it places the bus in strong pull-up mode to power
// parasitic devices and returns when the conversions have completed.
//
// ConvertAll uses time.Sleep to wait for the conversion to finish, which
// takes 750ms.
func ConvertAll(o onewire.Bus) error {
	if err := StartAll(o); err != nil {
		return err
	}
	sleep(conversionTime)
	return nil
}

// StartAll starts a conversion on all devices on the bus.
// Similar to ConvertAll but returns without waiting for conversion to
// finish. To be used in conjunction with LastTemp(). Conversion timing must
// be handled by other means.
func StartAll(o onewire.Bus) error {
	return o.Tx([]byte{cmdSkipROM, cmdConvert}, nil, onewire.StrongPullup)
}

// Search returns the addresses of up to maxDevices devices found on the bus.
//
// Finding no devices is not an error; the caller decides whether to retry.
// A maxDevices of zero or less returns an empty list without touching the
// bus. On a search error the devices discovered so far are returned with
// the error.
func Search(o onewire.Bus, maxDevices int) ([]onewire.Address, error) {
	return search(o, maxDevices, false)
}

// SearchAlarming is like Search but only finds devices whose last conversion
// was outside the thresholds configured with SetAlarm.
func SearchAlarming(o onewire.Bus, maxDevices int) ([]onewire.Address, error) {
	return search(o, maxDevices, true)
}

func search(o onewire.Bus, maxDevices int, alarmOnly bool) ([]onewire.Address, error) {
	if maxDevices <= 0 {
		return nil, nil
	}
	addrs, err := o.Search(alarmOnly)
	if err != nil && len(addrs) == 0 && isEmptyBus(err) {
		// An empty bus answers the search with no presence pulse at all.
		// Finding nothing is a valid result, not an error.
		return nil, nil
	}
	if len(addrs) > maxDevices {
		addrs = addrs[:maxDevices]
	}
	return addrs, err
}

// isEmptyBus reports whether a search error means no device answered, as
// opposed to a failure of the bus master itself.
func isEmptyBus(err error) bool {
	var nde onewire.NoDevicesError
	if errors.As(err, &nde) && nde.NoDevices() {
		return true
	}
	var be onewire.BusError
	return errors.As(err, &be) && be.BusError()
}

// frame prepends the ROM selection sequence to a command and its payload:
// match ROM plus the 64-bit address little-endian, or skip ROM for the
// Broadcast address.
func (d *Dev) frame(cmd byte, payload ...byte) []byte {
	if d.addr == Broadcast {
		w := make([]byte, 0, 2+len(payload))
		w = append(w, cmdSkipROM, cmd)
		return append(w, payload...)
	}
	w := make([]byte, 9, 10+len(payload))
	w[0] = cmdMatchROM
	binary.LittleEndian.PutUint64(w[1:], uint64(d.addr))
	w = append(w, cmd)
	return append(w, payload...)
}

var sleep = time.Sleep

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
