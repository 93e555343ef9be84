package shader

import (
	"fmt"
	"sync"
)

// programSet is the implementation of the ProgramSet interface.
type programSet struct {
	mu       *sync.Mutex
	programs map[string]Program
	order    []string
}

// ProgramSet holds the linked programs of a renderer and answers slot lookups keyed by
// (program, semantic name). Lookups read the slots resolved at link time and never re-parse.
type ProgramSet interface {
	// Register adds a linked program.
	//
	// Parameters:
	//   - p: the program to add
	//
	// Returns:
	//   - error: an error if a program with the same name is already registered
	Register(p Program) error

	// Program retrieves a registered program by name.
	Program(name string) (Program, bool)

	// Programs retrieves every registered program in registration order.
	Programs() []Program

	// Slot resolves a parameter slot.
	//
	// Parameters:
	//   - program: the program name
	//   - semantic: the parameter name
	//
	// Returns:
	//   - Slot: the resolved slot
	//   - error: a *LinkError if the program or parameter does not exist
	Slot(program, semantic string) (Slot, error)

	// BindSampler assigns a static sampler unit to a texture parameter of a program.
	//
	// Parameters:
	//   - program: the program name
	//   - semantic: the texture parameter name
	//   - unit: the unit number
	//
	// Returns:
	//   - error: a *LinkError if the program or parameter does not exist
	BindSampler(program, semantic string, unit int) error
}

var _ ProgramSet = &programSet{}

// NewProgramSet creates an empty ProgramSet.
func NewProgramSet() ProgramSet {
	return &programSet{
		mu:       &sync.Mutex{},
		programs: make(map[string]Program),
	}
}

func (s *programSet) Register(p Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[p.Name()]; exists {
		return fmt.Errorf("program %q is already registered", p.Name())
	}
	s.programs[p.Name()] = p
	s.order = append(s.order, p.Name())
	return nil
}

func (s *programSet) Program(name string) (Program, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[name]
	return p, ok
}

func (s *programSet) Programs() []Program {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Program, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.programs[name])
	}
	return out
}

func (s *programSet) Slot(program, semantic string) (Slot, error) {
	p, ok := s.Program(program)
	if !ok {
		return Slot{}, &LinkError{Program: program, Log: "program is not registered"}
	}
	slot, ok := p.Slot(semantic)
	if !ok {
		return Slot{}, &LinkError{Program: program, Log: fmt.Sprintf("no parameter named %q", semantic)}
	}
	return slot, nil
}

func (s *programSet) BindSampler(program, semantic string, unit int) error {
	p, ok := s.Program(program)
	if !ok {
		return &LinkError{Program: program, Log: "program is not registered"}
	}
	return p.BindSampler(semantic, unit)
}
