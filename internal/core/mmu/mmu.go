// Package mmu implements the 16-bit address decode described in spec
// §3.2/§4.2: ROM/external-RAM through the cartridge's MBC, VRAM/OAM
// through the GPU, WRAM/HRAM locally, and I/O registers dispatched to
// their owning component. It also hosts the read/write breakpoint hook
// and serves as the DMA source reader for GPU OAM/VRAM transfers (spec
// §3.7: "GPU ... hold a shared reference to an MMU handle solely to read
// DMA source bytes").
package mmu

import (
	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/joypad"
	"github.com/bassicali/gem-sub000/internal/core/mbc"
	"github.com/bassicali/gem-sub000/internal/core/serial"
	"github.com/bassicali/gem-sub000/internal/core/timer"
	"github.com/bassicali/gem-sub000/internal/core/types"
	"github.com/bassicali/gem-sub000/pkg/log"
)

// VideoBus is the subset of the GPU the MMU needs: register/VRAM/OAM
// access plus the DMA trigger. Declared here (rather than imported from
// the gpu package) to avoid a cyclic import between mmu and gpu — gpu
// imports mmu for DMA source reads, so mmu cannot import gpu back.
type VideoBus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

// AudioBus is the subset of the APU the MMU dispatches FF10-FF3F to.
type AudioBus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

// InvalidationTarget is the subset of disasm.Disassembler the MMU notifies
// of guest writes (spec §4.8: "On any MMU write to an address inside a
// decoded instruction's span, re-decode that entry in place"). Declared
// here rather than imported from internal/disasm so the MMU stays
// decoupled from the debugger tooling that happens to consume it.
type InvalidationTarget interface {
	Invalidate(addr uint16)
}

// Breakpoint describes one conditional memory-access trap (spec §4.2).
type Breakpoint struct {
	Address      uint16
	Value        uint8
	HasValue     bool
	ValueIsMask  bool
	Hit          bool
}

// MMU is the shared address-space aggregate. It is deliberately a plain
// struct owned by Machine (spec §9's "arena" aggregate) rather than a
// reference-counted node in a component graph.
type MMU struct {
	Cart *mbc.Controller

	VRAM VideoBus
	APU  AudioBus

	Disasm InvalidationTarget

	Joypad *joypad.State
	Serial *serial.Controller
	Timer  *timer.Controller
	IRQ    *interrupt.Controller

	wram     [8][0x1000]byte
	wramBank uint8 // SVBK, 1-7 on CGB; fixed at 1 on DMG
	hram     [0x80]byte

	isGBC bool

	// key1 backs FF4D (spec §4.2: "colour-variant speed switch"). Bit 0
	// is the guest's switch-armed request; bit 7 (read-only) reports the
	// currently active speed, held in doubleSpeed and toggled by
	// PerformSpeedSwitch when the CPU handles STOP (spec §4.1).
	key1        uint8
	doubleSpeed bool

	ReadBreakpoints  []*Breakpoint
	WriteBreakpoints []*Breakpoint
	EvalBreakpoints  bool

	Log log.Logger

	// bootDone tracks whether FF50 has been written; boot-ROM emulation
	// itself is a non-goal (spec §1) so this only gates nothing further,
	// kept for completeness of the register's read-back behaviour.
	bootDone bool
}

// New returns an MMU wired to its sibling components. Video and APU are
// attached after construction (New*(mmu) style, see machine.New) because
// GPU and APU themselves need a read-only handle back to the MMU for DMA.
func New(cart *mbc.Controller, irq *interrupt.Controller, jp *joypad.State, sr *serial.Controller, tm *timer.Controller, isGBC bool) *MMU {
	m := &MMU{
		Cart:     cart,
		Joypad:   jp,
		Serial:   sr,
		Timer:    tm,
		IRQ:      irq,
		isGBC:    isGBC,
		wramBank: 1,
		Log:      log.Nop{},
	}
	return m
}

// AttachVideo wires the GPU in after both have been constructed.
func (m *MMU) AttachVideo(v VideoBus) { m.VRAM = v }

// AttachAudio wires the APU in after both have been constructed.
func (m *MMU) AttachAudio(a AudioBus) { m.APU = a }

// AttachDisassembler wires a disasm.Disassembler in so every guest write
// can invalidate its decode cache (spec §4.8). Optional: a nil target
// (the zero value) simply skips notification, so headless/testing MMUs
// that never construct a disassembler pay nothing for it.
func (m *MMU) AttachDisassembler(d InvalidationTarget) { m.Disasm = d }

// Read dispatches a CPU (or DMA) read by address range (spec §3.2).
func (m *MMU) Read(address uint16) uint8 {
	m.evalRead(address)
	switch {
	case address <= 0x7FFF:
		return m.Cart.ReadROM(address)
	case address <= 0x9FFF:
		return m.VRAM.Read(address)
	case address <= 0xBFFF:
		return m.Cart.ReadRAM(address)
	case address <= 0xCFFF:
		return m.wram[0][address-0xC000]
	case address <= 0xDFFF:
		return m.wram[m.activeWRAMBank()][address-0xD000]
	case address <= 0xFDFF:
		return m.readEcho(address)
	case address <= 0xFE9F:
		return m.VRAM.Read(address)
	case address <= 0xFEFF:
		// Prohibited range (spec §3.2): reads return 0 per hardware,
		// logged as a GuestViolation rather than panicking (spec §7).
		m.Log.Debugf("mmu: guest read from prohibited range %04X", address)
		return 0x00
	case address == types.JOYP:
		return m.Joypad.Read()
	case address == types.SB, address == types.SC:
		return m.Serial.Read(address)
	case address >= types.DIV && address <= types.TAC:
		return m.Timer.Read(address)
	case address == types.IF:
		return m.IRQ.ReadIF()
	case address >= 0xFF10 && address <= 0xFF3F:
		return m.APU.Read(address)
	case address >= 0xFF40 && address <= 0xFF4B:
		return m.VRAM.Read(address)
	case address == types.KEY1:
		v := m.key1 & 0x01
		if m.doubleSpeed {
			v |= 0x80
		}
		return v | 0x7E
	case address == types.VBK, (address >= types.HDMA1 && address <= types.HDMA5), address == types.BCPS, address == types.BCPD, address == types.OCPS, address == types.OCPD:
		return m.VRAM.Read(address)
	case address == types.SVBK:
		return m.wramBank | 0xF8
	case address <= 0xFF7F:
		return 0xFF
	case address <= 0xFFFE:
		return m.hram[address-0xFF80]
	case address == types.IE:
		return m.IRQ.ReadIE()
	}
	return 0xFF
}

// Write dispatches a CPU write by address range (spec §3.2, §4.2).
func (m *MMU) Write(address uint16, value uint8) {
	m.evalWrite(address, value)
	if m.Disasm != nil {
		m.Disasm.Invalidate(address)
	}
	switch {
	case address <= 0x7FFF:
		// Writes to the cartridge range never modify ROM; they are
		// forwarded to the MBC as bank-control writes (spec §4.2).
		m.Cart.WriteControl(address, value)
	case address <= 0x9FFF:
		m.VRAM.Write(address, value)
	case address <= 0xBFFF:
		m.Cart.WriteRAM(address, value)
	case address <= 0xCFFF:
		m.wram[0][address-0xC000] = value
	case address <= 0xDFFF:
		m.wram[m.activeWRAMBank()][address-0xD000] = value
	case address <= 0xFDFF:
		m.writeEcho(address, value)
	case address <= 0xFE9F:
		m.VRAM.Write(address, value)
	case address <= 0xFEFF:
		m.Log.Debugf("mmu: guest write to prohibited range %04X", address)
	case address == types.JOYP:
		m.Joypad.Write(value)
	case address == types.SB, address == types.SC:
		m.Serial.Write(address, value)
	case address >= types.DIV && address <= types.TAC:
		m.Timer.Write(address, value)
	case address == types.IF:
		m.IRQ.WriteIF(value)
	case address >= 0xFF10 && address <= 0xFF3F:
		m.APU.Write(address, value)
	case address == types.LY:
		// LY is read-only from the guest; a write resets it internally
		// (spec §6.6), forwarded so the GPU can apply that reset.
		m.VRAM.Write(address, value)
	case address >= 0xFF40 && address <= 0xFF4B:
		m.VRAM.Write(address, value)
	case address == 0xFF50:
		m.bootDone = true
	case address == types.KEY1:
		if m.isGBC {
			m.key1 = value & 0x01
		}
	case address == types.VBK, (address >= types.HDMA1 && address <= types.HDMA5), address == types.BCPS, address == types.BCPD, address == types.OCPS, address == types.OCPD:
		m.VRAM.Write(address, value)
	case address == types.SVBK:
		if m.isGBC {
			v := value & 0x07
			if v == 0 {
				v = 1
			}
			m.wramBank = v
		}
	case address <= 0xFF7F:
		// unmapped I/O: silently ignored (spec §7 GuestViolation)
	case address <= 0xFFFE:
		m.hram[address-0xFF80] = value
	case address == types.IE:
		m.IRQ.WriteIE(value)
	}
	// After the write, so the re-decode sees the new bytes.
	if m.Disasm != nil {
		m.Disasm.Invalidate(address)
	}
}

// SpeedSwitchArmed reports whether the guest has requested a speed
// switch via KEY1 bit 0 (spec §4.1 STOP handling).
func (m *MMU) SpeedSwitchArmed() bool { return m.key1&0x01 != 0 }

// DoubleSpeed reports whether the CPU/timer/APU/GPU are currently
// clocked at double rate (CGB only).
func (m *MMU) DoubleSpeed() bool { return m.doubleSpeed }

// PerformSpeedSwitch toggles double-speed mode and clears the armed
// request bit, invoked by the CPU when STOP executes with KEY1 bit 0 set
// (spec §4.1).
func (m *MMU) PerformSpeedSwitch() {
	m.doubleSpeed = !m.doubleSpeed
	m.key1 = 0
}

func (m *MMU) activeWRAMBank() uint8 {
	if m.isGBC {
		return m.wramBank
	}
	return 1
}

// readEcho/writeEcho implement the silent E000-FDFF mirror of
// C000-DDFF (spec §3.2, §4.2) via address subtraction.
func (m *MMU) readEcho(address uint16) uint8 {
	shadow := address - 0x2000
	if shadow <= 0xCFFF {
		return m.wram[0][shadow-0xC000]
	}
	return m.wram[m.activeWRAMBank()][shadow-0xD000]
}

func (m *MMU) writeEcho(address uint16, value uint8) {
	shadow := address - 0x2000
	if shadow <= 0xCFFF {
		m.wram[0][shadow-0xC000] = value
	} else {
		m.wram[m.activeWRAMBank()][shadow-0xD000] = value
	}
}

// ReadDMASource reads a byte for the GPU's OAM/VRAM DMA engines. It is
// identical to Read but never evaluates breakpoints, since DMA transfers
// are not guest-code memory accesses.
func (m *MMU) ReadDMASource(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		return m.Cart.ReadROM(address)
	case address <= 0x9FFF:
		return m.VRAM.Read(address)
	case address <= 0xBFFF:
		return m.Cart.ReadRAM(address)
	case address <= 0xCFFF:
		return m.wram[0][address-0xC000]
	case address <= 0xDFFF:
		return m.wram[m.activeWRAMBank()][address-0xD000]
	case address <= 0xFDFF:
		return m.readEcho(address)
	default:
		return 0xFF
	}
}

func (m *MMU) evalRead(address uint16) {
	if !m.EvalBreakpoints {
		return
	}
	for _, bp := range m.ReadBreakpoints {
		if bp.Address == address {
			bp.Hit = true
		}
	}
}

func (m *MMU) evalWrite(address uint16, value uint8) {
	if !m.EvalBreakpoints {
		return
	}
	for _, bp := range m.WriteBreakpoints {
		if bp.Address != address {
			continue
		}
		if !bp.HasValue {
			bp.Hit = true
			continue
		}
		if bp.ValueIsMask {
			if value&bp.Value == bp.Value {
				bp.Hit = true
			}
		} else if value == bp.Value {
			bp.Hit = true
		}
	}
}

var _ types.Stater = (*MMU)(nil)

func (m *MMU) Save(s *types.State) {
	for i := range m.wram {
		s.WriteRaw(m.wram[i][:])
	}
	s.WriteRaw(m.hram[:])
	s.Write8(m.wramBank)
	s.WriteBool(m.bootDone)
	s.Write8(m.key1)
	s.WriteBool(m.doubleSpeed)
}

func (m *MMU) Load(s *types.State) {
	for i := range m.wram {
		s.ReadInto(m.wram[i][:])
	}
	s.ReadInto(m.hram[:])
	m.wramBank = s.Read8()
	m.bootDone = s.ReadBool()
	m.key1 = s.Read8()
	m.doubleSpeed = s.ReadBool()
}
