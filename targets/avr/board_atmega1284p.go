//go:build tinygo && atmega1284p

package main

import "avrkit/config"

func board() *config.Board {
	b := config.Default()
	b.MCU = "atmega1284"
	return b
}
