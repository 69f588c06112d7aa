package core

import (
	"errors"
	"strings"
	"testing"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	// Register a command
	var called bool
	handler := func(data *[]byte) error {
		called = true
		return nil
	}

	id := registry.Register("seg_show", "value=%c dot=%c", handler)

	if id != 0 {
		t.Errorf("Expected first command to have ID 0, got %d", id)
	}

	cmd, ok := registry.GetCommand(id)
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if cmd.Name != "seg_show" {
		t.Errorf("Expected command name 'seg_show', got '%s'", cmd.Name)
	}

	var data []byte
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}

	if err := registry.Dispatch(999, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand for unknown ID, got %v", err)
	}
}

func TestCommandRegistrySequentialIDs(t *testing.T) {
	registry := NewCommandRegistry()

	id1 := registry.Register("key_event", "key=%c", nil)
	id2 := registry.Register("range", "mm=%u", nil)
	id3 := registry.Register("nunchuk_calibrate", "", func(data *[]byte) error { return nil })

	if id1 != 0 || id2 != 1 || id3 != 2 {
		t.Errorf("Command IDs not sequential: %d, %d, %d", id1, id2, id3)
	}

	if again := registry.Register("range", "mm=%u", nil); again != id2 {
		t.Errorf("Re-registering returned %d, want %d", again, id2)
	}
	if registry.Count() != 3 {
		t.Errorf("Count = %d, want 3", registry.Count())
	}
}

func TestCommandRegistryResponseNotDispatchable(t *testing.T) {
	registry := NewCommandRegistry()
	id := registry.Register("key_event", "key=%c", nil)

	var data []byte
	if err := registry.Dispatch(id, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Dispatching a response returned %v", err)
	}

	if !registry.Handle("key_event", func(data *[]byte) error { return nil }) {
		t.Fatal("Handle on registered name returned false")
	}
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch after Handle failed: %v", err)
	}
	if registry.Handle("missing", nil) {
		t.Error("Handle on unknown name returned true")
	}
}

func TestCommandRegistryDictionary(t *testing.T) {
	registry := NewCommandRegistry()

	registry.Register("nunchuk_calibrate", "", func(data *[]byte) error { return nil })
	registry.Register("range_calibrate", "measured=%u actual=%u", func(data *[]byte) error { return nil })

	dict := registry.GetDictionary()
	want := "nunchuk_calibrate\nrange_calibrate measured=%u actual=%u\n"
	if dict != want {
		t.Errorf("Dictionary = %q, want %q", dict, want)
	}

	id, ok := registry.Lookup("range_calibrate")
	if !ok || id != 1 {
		t.Errorf("Lookup = %d,%v", id, ok)
	}
}

func TestCommandErrorIsRecorded(t *testing.T) {
	ClearEvents()
	registry := NewCommandRegistry()
	boom := errors.New("boom")
	id := registry.Register("lcd_print", "", func(data *[]byte) error { return boom })

	var data []byte
	if err := registry.Dispatch(id, &data); !errors.Is(err, boom) {
		t.Fatalf("Dispatch returned %v", err)
	}

	events := Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[1].Type != EvtCommandErr {
		t.Errorf("Last event = %s", EventName(events[1].Type))
	}
	if !strings.HasSuffix(EventName(events[1].Type), "!") {
		t.Errorf("Error events should be flagged, got %s", EventName(events[1].Type))
	}
}
