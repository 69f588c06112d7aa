package core

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is returned when dispatching an unregistered ID.
var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler decodes its own arguments from data and runs the command.
type CommandHandler func(data *[]byte) error

// Command is one entry of the message dictionary. Responses (device to
// host) are registered with a nil handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "line=%c text=%*s"
	Handler CommandHandler
}

// CommandRegistry maps message IDs to handlers. IDs are handed out in
// registration order, so both ends of the link agree on them as long as
// they register the same table.
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   []*Command
	nameToID   map[string]uint16
	dictionary string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// Register adds a message and returns its ID. Registering a name twice
// returns the original ID.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.nameToID[name] = id

	if format != "" {
		r.dictionary += name + " " + format + "\n"
	} else {
		r.dictionary += name + "\n"
	}
	return id
}

// Handle attaches a handler to an already registered message.
func (r *CommandRegistry) Handle(name string, handler CommandHandler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.nameToID[name]
	if !ok {
		return false
	}
	r.commands[id].Handler = handler
	return true
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// Lookup returns the ID registered for name.
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	return id, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler for cmdID. Responses have no handler and
// dispatching one is an error.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		RecordEvent(EvtCommandErr, 0, uint32(cmdID), 0)
		return ErrUnknownCommand
	}
	RecordEvent(EvtCommand, 0, uint32(cmdID), 0)
	if err := cmd.Handler(data); err != nil {
		RecordEvent(EvtCommandErr, 0, uint32(cmdID), 1)
		return err
	}
	return nil
}

// GetDictionary returns one "name format" line per message in ID order.
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}
