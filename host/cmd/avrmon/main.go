//go:build !tinygo

// Command avrmon prints a board's telemetry and sends it commands typed
// at a prompt.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"avrkit/config"
	"avrkit/host/mcu"
	"avrkit/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", 0, "Baud rate (default: from -board, else 38400)")
	board   = flag.String("board", "", "Board JSON file; used for the baud rate")
	verbose = flag.Bool("verbose", false, "Print the dictionary and link statistics")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	if *board != "" {
		b, err := config.LoadFile(*board)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Baud = int(b.Baud)
	}
	if *baud > 0 {
		cfg.Baud = *baud
	}

	m := mcu.NewMCU()
	fmt.Printf("Connecting to %s at %d baud...\n", cfg.Device, cfg.Baud)
	if err := m.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := m.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Board: %s %s Hz, firmware %s\n",
		m.Dictionary().Config["MCU"], m.Dictionary().Config["CLOCK_FREQ"], m.Dictionary().Version)
	if *verbose {
		m.PrintDictionary(os.Stdout)
	}

	go printTelemetry(m)

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args, err := shlex.Split(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
			continue
		case "dict":
			m.PrintDictionary(os.Stdout)
			continue
		case "stats":
			dropped, missed := m.Link().Stats()
			fmt.Printf("dropped %d bytes, missed %d frames\n", dropped, missed)
			continue
		}

		msg, err := mcu.Command(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if err := m.Send(msg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printTelemetry(m *mcu.MCU) {
	for r := range m.Link().Messages() {
		fmt.Printf("\r%s\n> ", mcu.Format(r))
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println(`  lcd <0|1> <left|center|right> "text"  - Write a line on the LCD`)
	fmt.Println("  seg <0-f> [dot]                     - Show a digit on the 7-segment display")
	fmt.Println("  calibrate                           - Take the Nunchuk position as neutral")
	fmt.Println("  range-cal <measured> <actual>       - Correct the range finder, in mm")
	fmt.Println("  dict                                - Print the board dictionary")
	fmt.Println("  stats                               - Print link error counters")
	fmt.Println("  quit/exit/q                         - Exit")
}
