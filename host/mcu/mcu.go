//go:build !tinygo

// Package mcu is the host's view of one board: the link, the identify
// dictionary and the commands a user can send.
package mcu

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"avrkit/firmware"
	"avrkit/host/serial"
	"avrkit/protocol"
)

// ErrNotConnected is returned before Connect.
var ErrNotConnected = errors.New("not connected to board")

// MCU is a connection to a board.
type MCU struct {
	link *protocol.Link
	port io.ReadWriteCloser

	dictionary *protocol.DictionaryInfo

	// IdentifyTimeout bounds each identify round trip.
	IdentifyTimeout time.Duration
}

// NewMCU returns an unconnected MCU.
func NewMCU() *MCU {
	return &MCU{IdentifyTimeout: time.Second}
}

// Connect opens device with the default serial settings.
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the serial port described by cfg.
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	m.ConnectPort(port)
	return nil
}

// ConnectPort starts a link over an already open port.
func (m *MCU) ConnectPort(port io.ReadWriteCloser) {
	m.port = port
	m.link = protocol.NewLink(port, 64)
}

// Close shuts the link down.
func (m *MCU) Close() error {
	if m.link == nil {
		return nil
	}
	err := m.link.Close()
	m.link = nil
	return err
}

// IsConnected reports whether a link is up.
func (m *MCU) IsConnected() bool {
	return m.link != nil
}

// Link returns the underlying link, or nil.
func (m *MCU) Link() *protocol.Link {
	return m.link
}

// RetrieveDictionary downloads the dictionary and checks that the board
// numbers its messages the way the host does.
func (m *MCU) RetrieveDictionary() error {
	if m.link == nil {
		return ErrNotConnected
	}
	info, err := m.link.Identify(m.IdentifyTimeout)
	if err != nil {
		return err
	}
	if err := info.Verify(); err != nil {
		return fmt.Errorf("dictionary mismatch: %w", err)
	}
	m.dictionary = info
	return nil
}

// Dictionary returns the last retrieved dictionary, or nil.
func (m *MCU) Dictionary() *protocol.DictionaryInfo {
	return m.dictionary
}

// PrintDictionary writes a summary of the dictionary to w.
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}
	d := m.dictionary
	fmt.Fprintf(w, "Version: %s\n", d.Version)

	fmt.Fprintln(w, "Config:")
	for _, k := range sortedKeys(d.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, d.Config[k])
	}

	fmt.Fprintf(w, "Messages (%d):\n", len(d.Messages))
	names := make([]string, 0, len(d.Messages))
	for name := range d.Messages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return d.Messages[names[i]] < d.Messages[names[j]] })
	for _, name := range names {
		fmt.Fprintf(w, "  [%d] %s\n", d.Messages[name], name)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Send writes one message.
func (m *MCU) Send(msg protocol.Message) error {
	if m.link == nil {
		return ErrNotConnected
	}
	return m.link.Send(msg)
}

// Command parses a REPL command line, already split into words, into a
// message.
//
//	lcd <line> <left|center|right> <text...>
//	seg <hex digit> [dot]
//	calibrate
//	range-cal <measured mm> <actual mm>
func Command(args []string) (protocol.Message, error) {
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	switch args[0] {
	case "lcd":
		if len(args) < 3 {
			return nil, errors.New("usage: lcd <line> <left|center|right> [text]")
		}
		line, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil || line > 1 {
			return nil, fmt.Errorf("bad line %q", args[1])
		}
		justify, ok := justifyNames[args[2]]
		if !ok {
			return nil, fmt.Errorf("bad justification %q", args[2])
		}
		return protocol.LCDPrint{Line: uint8(line), Justify: justify, Text: strings.Join(args[3:], " ")}, nil

	case "seg":
		if len(args) < 2 || len(args) > 3 {
			return nil, errors.New("usage: seg <0-f> [dot]")
		}
		v, err := strconv.ParseUint(args[1], 16, 8)
		if err != nil || v > 0x0F {
			return nil, fmt.Errorf("bad digit %q", args[1])
		}
		dot := len(args) == 3 && args[2] == "dot"
		if len(args) == 3 && !dot {
			return nil, fmt.Errorf("bad flag %q", args[2])
		}
		return protocol.SegShow{Value: uint8(v), Dot: dot}, nil

	case "calibrate":
		return protocol.NunchukCalibrate{}, nil

	case "range-cal":
		if len(args) != 3 {
			return nil, errors.New("usage: range-cal <measured> <actual>")
		}
		measured, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad measured %q", args[1])
		}
		actual, err := strconv.ParseUint(args[2], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad actual %q", args[2])
		}
		return protocol.RangeCalibrate{Measured: uint32(measured), Actual: uint32(actual)}, nil
	}
	return nil, fmt.Errorf("unknown command %q", args[0])
}

var justifyNames = map[string]uint8{
	"left":   0,
	"center": 1,
	"right":  2,
}

// Format renders a received message as one log line.
func Format(r protocol.Received) string {
	if r.Err != nil {
		return fmt.Sprintf("seq=%d undecodable % x: %v", r.Seq, r.Raw, r.Err)
	}
	switch m := r.Message.(type) {
	case protocol.KeyEvent:
		return fmt.Sprintf("key %s", keyName(m.Key))
	case protocol.NunchukState:
		return fmt.Sprintf("nunchuk joy=(%d,%d) accel=(%d,%d,%d) c=%t z=%t",
			m.JoyX, m.JoyY, m.AccelX, m.AccelY, m.AccelZ,
			m.Buttons&protocol.ButtonC != 0, m.Buttons&protocol.ButtonZ != 0)
	case protocol.Range:
		return fmt.Sprintf("range %d mm", m.MM)
	case protocol.BusError:
		if m.Status == firmware.StatusStuck {
			return "bus_error: bus stuck"
		}
		return fmt.Sprintf("bus_error: want 0x%02X got 0x%02X", m.Step, m.Status)
	}
	return fmt.Sprintf("%s %+v", protocol.Name(r.Message.ID()), r.Message)
}

// keyName prints either keypad mode's code.
func keyName(k uint8) string {
	if k <= 0x0F {
		return strings.ToUpper(strconv.FormatUint(uint64(k), 16))
	}
	return string(rune(k))
}
