// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Program ds1820temp reads every DS1820 sensor on a 1-wire bus and prints
// the temperatures, once or periodically.
//
// It expects a DS248x 1-wire bus master on an I²C bus.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/owbus/ds1820"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/devices/v3/ds248x"
	"periph.io/x/host/v3"
)

var (
	i2cName  = flag.String("bus", "", "I²C bus with the DS248x master (\"\" for the first available)")
	i2cAddr  = flag.Uint("addr", 0x18, "I²C address of the DS248x")
	maxDev   = flag.Int("max", 8, "maximum number of sensors to read")
	retries  = flag.Int("retries", 2, "reads attempted per sensor before giving up")
	interval = flag.Duration("interval", 0, "repeat every interval (0 reads once)")
)

// formatDeci renders tenths of a degree as a decimal, keeping the sign on
// values between -1 and 0.
func formatDeci(deci int) string {
	sign := ""
	if deci < 0 {
		sign = "-"
		deci = -deci
	}
	return fmt.Sprintf("%s%d.%d", sign, deci/10, deci%10)
}

// readAll converts on every device at once, then reads them back one by one.
// A read that fails on a CRC error is retried a bounded number of times;
// long cable runs make occasional corrupted reads a fact of life.
func readAll(bus onewire.Bus, addrs []onewire.Address) {
	if err := ds1820.ConvertAll(bus); err != nil {
		log.Printf("convert: %v", err)
		return
	}
	for _, addr := range addrs {
		d, err := ds1820.New(bus, addr)
		if err != nil {
			log.Printf("%#016x: %v", uint64(addr), err)
			continue
		}
		var deci int
		for i := 0; i < *retries; i++ {
			if deci, err = d.DeciCelsius(); err == nil {
				break
			}
		}
		if err != nil {
			fmt.Printf("%#016x  ---.-\n", uint64(addr))
			continue
		}
		fmt.Printf("%#016x  %s°C\n", uint64(addr), formatDeci(deci))
	}
}

func mainImpl() error {
	flag.Parse()

	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(*i2cName)
	if err != nil {
		return err
	}
	defer b.Close()
	bus, err := ds248x.New(b, uint16(*i2cAddr), &ds248x.DefaultOpts)
	if err != nil {
		return err
	}

	addrs, err := ds1820.Search(bus, *maxDev)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return fmt.Errorf("no 1-wire device found")
	}

	readAll(bus, addrs)
	if *interval <= 0 {
		return nil
	}
	for range time.Tick(*interval) {
		readAll(bus, addrs)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		log.Fatalf("ds1820temp: %v", err)
	}
}
