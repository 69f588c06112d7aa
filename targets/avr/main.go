//go:build tinygo && avr

// Command avr is the board firmware.
package main

import (
	"machine"
	"time"

	"avrkit/config"
	"avrkit/core"
	"avrkit/firmware"
	"avrkit/sevenseg"
)

func main() {
	boot := time.Now()
	core.SetTimeSource(func() uint32 {
		return uint32(time.Since(boot) / time.Microsecond)
	})
	core.TimerInit()

	b := board()
	b.CPUHz = machine.CPUFrequency()

	app, err := firmware.New(core.MMIO{}, core.SystemClock{}, core.Sleep, b, nil)
	if err != nil {
		halt(b)
	}
	if err := app.Start(); err != nil {
		halt(b)
	}
	app.Run()
}

// halt shows "E" on the 7-segment display and stops.
func halt(b *config.Board) {
	layout, err := firmware.LayoutFor(b)
	if err != nil {
		layout = firmware.ATmega32
	}
	seg := sevenseg.NewDisplay(core.MMIO{}, layout.Pins.Segments, sevenseg.Default)
	seg.Init()
	seg.Show(sevenseg.Letter('E', false))
	for {
		time.Sleep(time.Second)
	}
}
