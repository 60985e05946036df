// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package rawlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Flag is one bit of the instrument status byte. The logger writes the
// valve state in the most significant bit.
type Flag uint8

const (
	Valve    Flag = 0x80
	Pump     Flag = 0x40
	Fan      Flag = 0x20
	Oven     Flag = 0x10
	Band     Flag = 0x08
	Licor    Flag = 0x04
	ExtPump  Flag = 0x02
	Reserved Flag = 0x01
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Valve, "valve"},
	{Pump, "pump"},
	{Fan, "fan"},
	{Oven, "oven"},
	{Band, "band"},
	{Licor, "licor"},
	{ExtPump, "extpump"},
	{Reserved, "reserved"},
}

// Status is the decoded status byte of a sample.
type Status uint8

func (s Status) Has(f Flag) bool {
	return uint8(s)&uint8(f) != 0
}

func (s Status) Valve() bool   { return s.Has(Valve) }
func (s Status) Pump() bool    { return s.Has(Pump) }
func (s Status) Fan() bool     { return s.Has(Fan) }
func (s Status) Oven() bool    { return s.Has(Oven) }
func (s Status) Band() bool    { return s.Has(Band) }
func (s Status) Licor() bool   { return s.Has(Licor) }
func (s Status) ExtPump() bool { return s.Has(ExtPump) }

// Flags returns the names of all set bits, most significant first.
func (s Status) Flags() []string {
	var names []string
	for _, f := range flagNames {
		if s.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return names
}

func (s Status) String() string {
	return fmt.Sprintf("%02X", uint8(s))
}

// DecodeStatus decodes a one or two digit hexadecimal status byte. A "0x"
// prefix is accepted.
func DecodeStatus(text string) (Status, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if len(text) == 0 || len(text) > 2 {
		return 0, fmt.Errorf("invalid status byte %q", text)
	}
	v, err := strconv.ParseUint(text, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid status byte %q: %w", text, err)
	}
	return Status(v), nil
}
