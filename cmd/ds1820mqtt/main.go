// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Program ds1820mqtt periodically reads every DS1820 sensor on a 1-wire bus
// and publishes the readings as JSON over MQTT.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/owbus/ds1820"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/devices/v3/ds248x"
	"periph.io/x/host/v3"
)

var (
	broker   = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	topic    = flag.String("topic", "sensors/ds1820", "MQTT topic to publish to")
	clientID = flag.String("clientid", "ds1820mqtt", "MQTT client ID")
	i2cName  = flag.String("bus", "", "I²C bus with the DS248x master (\"\" for the first available)")
	i2cAddr  = flag.Uint("addr", 0x18, "I²C address of the DS248x")
	maxDev   = flag.Int("max", 8, "maximum number of sensors to read")
	interval = flag.Duration("interval", time.Minute, "time between measurements")
)

// reading is one published measurement.
type reading struct {
	Device      string    `json:"device"`
	DeciCelsius int       `json:"deci_celsius"`
	Timestamp   time.Time `json:"timestamp"`
}

func publishAll(client mqtt.Client, bus onewire.Bus, addrs []onewire.Address) {
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
		deci, err := d.DeciCelsius()
		if err != nil {
			log.Printf("%#016x: %v", uint64(addr), err)
			continue
		}
		payload, err := json.Marshal(reading{
			Device:      fmt.Sprintf("%016x", uint64(addr)),
			DeciCelsius: deci,
			Timestamp:   time.Now().UTC(),
		})
		if err != nil {
			log.Printf("%#016x: %v", uint64(addr), err)
			continue
		}
		if token := client.Publish(*topic, 1, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("publish: %v", token.Error())
		}
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
	log.Printf("found %d device(s)", len(addrs))

	opts := mqtt.NewClientOptions().AddBroker(*broker).SetClientID(*clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	publishAll(client, bus, addrs)
	for {
		select {
		case <-ticker.C:
			publishAll(client, bus, addrs)
		case s := <-signals:
			log.Printf("caught %v, exiting", s)
			return nil
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		log.Fatalf("ds1820mqtt: %v", err)
	}
}
