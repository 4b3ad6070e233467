// Package machine wires CPU, MMU, cartridge/MBC, GPU, APU, interrupt
// controller, timer, joypad and serial stub into the single aggregate
// described in spec §9: "Define a single 'Machine' aggregate that owns
// each component by value; individual components accept the aggregate
// (or a split borrow of it) at call sites." Tick is the sole driver named
// in spec §2.
package machine

import (
	"fmt"
	"io"

	"github.com/bassicali/gem-sub000/internal/core/apu"
	"github.com/bassicali/gem-sub000/internal/core/cartridge"
	"github.com/bassicali/gem-sub000/internal/core/cpu"
	"github.com/bassicali/gem-sub000/internal/core/gpu"
	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/joypad"
	"github.com/bassicali/gem-sub000/internal/core/mbc"
	"github.com/bassicali/gem-sub000/internal/core/mmu"
	"github.com/bassicali/gem-sub000/internal/core/serial"
	"github.com/bassicali/gem-sub000/internal/core/timer"
	"github.com/bassicali/gem-sub000/internal/core/types"
	"github.com/bassicali/gem-sub000/internal/disasm"
	"github.com/bassicali/gem-sub000/pkg/log"
)

// Machine owns every core component and drives them through Tick (spec
// §2 data flow, §5 concurrency model: single-threaded, cooperative, the
// sub-component order CPU->IRQ-service->Timer->APU->GPU is fixed).
type Machine struct {
	Cart *cartridge.Cartridge
	MBC  *mbc.Controller
	IRQ  *interrupt.Controller
	Timer *timer.Controller
	Joypad *joypad.State
	Serial *serial.Controller
	MMU  *mmu.MMU
	GPU  *gpu.GPU
	APU  *apu.APU
	CPU  *cpu.CPU

	// Disasm is the live decode cache backing Trace and any debugger
	// listing view (spec §4.8); the MMU notifies it on every guest write
	// so it never drifts from what actually executed.
	Disasm *disasm.Disassembler

	isGBC bool

	trace   io.Writer
	traceOn bool
}

// New constructs a Machine for rom. The colour/monochrome variant is
// decided by the cartridge header unless model forces one (spec §3.1,
// §3.3); ModelAuto follows the header's GameboyColor() flag.
func New(rom []byte, model types.Model) (*Machine, error) {
	cart, err := cartridge.Load(rom)
	if err != nil {
		return nil, err
	}

	isGBC := cart.Header.GameboyColor()
	switch model {
	case types.ModelDMG:
		isGBC = false
	case types.ModelCGB:
		isGBC = true
	}

	m := &Machine{Cart: cart, isGBC: isGBC}

	m.MBC = mbc.New(cart)
	m.IRQ = interrupt.New()
	m.Joypad = joypad.New(m.IRQ)
	m.Serial = serial.New()
	m.Timer = timer.New(m.IRQ)
	m.MMU = mmu.New(m.MBC, m.IRQ, m.Joypad, m.Serial, m.Timer, isGBC)
	m.GPU = gpu.New(m.IRQ, m.MMU, isGBC)
	m.APU = apu.New()
	m.MMU.AttachVideo(m.GPU)
	m.MMU.AttachAudio(m.APU)
	m.CPU = cpu.New(m.MMU, m.IRQ, isGBC)

	m.Disasm = disasm.New(m.MMU, cart.Features.ExternalRAM)
	m.MMU.AttachDisassembler(m.Disasm)

	return m, nil
}

// SetLogger installs lg as the diagnostic sink for every component that
// accepts one (spec §7 ambient logging: GuestViolation/InternalInvariant
// are surfaced through a structured Logger rather than bare prints).
func (m *Machine) SetLogger(lg log.Logger) {
	m.MMU.Log = lg
}

// Press/Release forward to the joypad (spec §6.5 input capability).
func (m *Machine) Press(k joypad.Key)   { m.Joypad.Press(k) }
func (m *Machine) Release(k joypad.Key) { m.Joypad.Release(k) }

// Tick advances the machine by exactly one CPU instruction (or one
// virtual idle cycle while halted/stopped), then fans the consumed cycle
// budget out to Timer, APU and GPU (spec §2). It returns true iff the GPU
// entered VBlank during this advance.
func (m *Machine) Tick() bool {
	tCycles := m.CPU.Step()
	mCycles := tCycles / 4

	// Timer always advances at M x 4 T-cycles regardless of CGB double
	// speed (spec §2 step 4).
	m.Timer.Tick(tCycles)

	// APU/GPU advance at M x T-multiplier, where the multiplier halves
	// in double-speed mode so they keep real-time pace while the CPU
	// itself runs twice as many M-cycles per unit of wall time (spec §2
	// step 5).
	multiplier := uint16(4)
	if m.MMU.DoubleSpeed() {
		multiplier = 2
	}
	peripheralCycles := mCycles * multiplier

	m.APU.Tick(peripheralCycles)
	vblank := m.GPU.Tick(peripheralCycles)

	if m.traceOn {
		m.writeTrace()
	}

	return vblank
}

// Framebuffer returns the most recently completed 160x144 RGBA frame.
func (m *Machine) Framebuffer() *[gpu.ScreenHeight][gpu.ScreenWidth][4]uint8 {
	return m.GPU.Framebuffer()
}

// Trace toggles per-instruction trace emission to w (spec §6.7): PC,
// mnemonic, SP, A/B/C/D/E/H/L, Z/N/H/C, hex for numerics. Passing a nil
// writer disables tracing. Mnemonic decoding is delegated to the
// disassembler so the trace line and the debugger's listing never drift
// apart (spec §4.8 supplemented in SPEC_FULL §12).
func (m *Machine) Trace(w io.Writer) {
	m.trace = w
	m.traceOn = w != nil
}

func (m *Machine) writeTrace() {
	r := m.CPU.Registers
	z, n, h, c := 0, 0, 0, 0
	if r.F&0x80 != 0 {
		z = 1
	}
	if r.F&0x40 != 0 {
		n = 1
	}
	if r.F&0x20 != 0 {
		h = 1
	}
	if r.F&0x10 != 0 {
		c = 1
	}

	mnemonic := "??"
	if e, ok := m.Disasm.Lookup(m.CPU.PC); ok {
		mnemonic = e.Mnemonic
	}

	fmt.Fprintf(m.trace, "PC:%04X %s SP:%04X A:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X Z:%d N:%d H:%d C:%d\n",
		m.CPU.PC, mnemonic, m.CPU.SP, r.A, r.B, r.C, r.D, r.E, r.H, r.L, z, n, h, c)
}

// Save serialises every stateful component in a fixed order (spec §5's
// Tick-boundary determinism carries over to the snapshot contract named
// in spec §1: "the snapshot *contract* is named; the binary format is
// not specified here"). The concrete binary shape lives one layer up, in
// internal/snapshot.
func (m *Machine) Save(s *types.State) {
	m.CPU.Save(s)
	m.MMU.Save(s)
	m.GPU.Save(s)
	m.APU.Save(s)
	m.IRQ.Save(s)
	m.Timer.Save(s)
	m.Serial.Save(s)
}

// Load restores state written by Save, in the same fixed order.
func (m *Machine) Load(s *types.State) {
	m.CPU.Load(s)
	m.MMU.Load(s)
	m.GPU.Load(s)
	m.APU.Load(s)
	m.IRQ.Load(s)
	m.Timer.Load(s)
	m.Serial.Load(s)
}

var _ types.Stater = (*Machine)(nil)
