//go:build tinygo && avr && !atmega1284p

package main

import "avrkit/config"

func board() *config.Board {
	return config.Default()
}
