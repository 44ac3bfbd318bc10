// Package filter selects frames with classic BPF programs.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/bpf"

	"github.com/lijingwei9060/ether-packet/internal/core"
)

// BPF matches frames against a classic BPF program, as attached to a socket
// with SO_ATTACH_FILTER. It is safe for concurrent use.
type BPF struct {
	vm  *bpf.VM
	raw []bpf.RawInstruction
}

// ParseProgram parses the output of `tcpdump -ddd`: an instruction count
// followed by one "code jt jf k" quadruple per instruction. Instructions may
// be separated by newlines or commas, the latter being the iptables
// `--bytecode` form.
func ParseProgram(text string) ([]bpf.RawInstruction, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ',' || r == '\r' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty bpf program", core.ErrConfigInvalid)
	}

	n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: bpf instruction count: %w", core.ErrConfigInvalid, err)
	}
	fields = fields[1:]
	if n <= 0 || n != len(fields) {
		return nil, fmt.Errorf("%w: bpf program declares %d instructions, has %d", core.ErrConfigInvalid, n, len(fields))
	}

	raw := make([]bpf.RawInstruction, 0, n)
	for i, line := range fields {
		var code, jt, jf, k uint64
		parts := strings.Fields(line)
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: bpf instruction %d: want 4 fields, got %q", core.ErrConfigInvalid, i, line)
		}
		for j, dst := range []*uint64{&code, &jt, &jf, &k} {
			bits := []int{16, 8, 8, 32}[j]
			if *dst, err = strconv.ParseUint(parts[j], 10, bits); err != nil {
				return nil, fmt.Errorf("%w: bpf instruction %d: %w", core.ErrConfigInvalid, i, err)
			}
		}
		raw = append(raw, bpf.RawInstruction{Op: uint16(code), Jt: uint8(jt), Jf: uint8(jf), K: uint32(k)})
	}
	return raw, nil
}

// NewBPF validates raw and loads it into a BPF virtual machine.
func NewBPF(raw []bpf.RawInstruction) (*BPF, error) {
	insts, ok := bpf.Disassemble(raw)
	if !ok {
		return nil, fmt.Errorf("%w: bpf program contains unknown instructions", core.ErrConfigInvalid)
	}
	vm, err := bpf.NewVM(insts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfigInvalid, err)
	}
	return &BPF{vm: vm, raw: raw}, nil
}

// Compile parses and loads a `tcpdump -ddd` program.
func Compile(text string) (*BPF, error) {
	raw, err := ParseProgram(text)
	if err != nil {
		return nil, err
	}
	return NewBPF(raw)
}

// Match reports whether the program accepts frame, i.e. returns a non-zero
// snap length for it.
func (f *BPF) Match(frame []byte) (bool, error) {
	n, err := f.vm.Run(frame)
	if err != nil {
		return false, fmt.Errorf("bpf: %w", err)
	}
	return n > 0, nil
}

// Len returns the number of instructions in the program.
func (f *BPF) Len() int { return len(f.raw) }
