// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds1820 controls a Dallas Semiconductor DS1820 digital thermometer
// over a 1-wire bus.
//
// The DS1820 is the original 9-bit member of the family; the count registers
// in its scratchpad allow readings to be refined to tenths of a degree. The
// driver also exposes the device's alarm thresholds, EEPROM store/recall and
// parasite power detection.
//
// Range: -55°C - 125°C
//
// Accuracy: +/- 0.5°C
//
// Resolution: 0.1°C using the count register correction
//
// Typical use:
//
//  1. Discover devices with Search.
//  2. Create a Dev with New, or use the Broadcast address when a single
//     device is on the bus.
//  3. Start a measurement with Convert (or ConvertAll for every device).
//  4. Wait at least 500ms for the conversion to complete.
//  5. Read the result with LastTemp, or let Sense do steps 3-5.
//
// For detailed information, refer to the [datasheet].
//
// [datasheet]: https://datasheets.maximintegrated.com/en/ds/DS1820.pdf
package ds1820
