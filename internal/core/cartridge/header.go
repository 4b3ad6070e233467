package cartridge

import "fmt"

// GBMode records the header's colour-compatibility byte (spec §3.3).
type GBMode uint8

const (
	ModeDMGOnly GBMode = iota
	ModeSupportsCGB
	ModeCGBOnly
)

// Type is the raw cartridge-type byte (offset 0x147).
type Type uint8

const (
	TypeROM               Type = 0x00
	TypeMBC1              Type = 0x01
	TypeMBC1RAM           Type = 0x02
	TypeMBC1RAMBatt       Type = 0x03
	TypeMBC2               Type = 0x05
	TypeMBC2Batt           Type = 0x06
	TypeMMM01              Type = 0x0B
	TypeMMM01RAM           Type = 0x0C
	TypeMMM01RAMBatt       Type = 0x0D
	TypeMBC3TimerBatt      Type = 0x0F
	TypeMBC3TimerRAMBatt   Type = 0x10
	TypeMBC3               Type = 0x11
	TypeMBC3RAM            Type = 0x12
	TypeMBC3RAMBatt        Type = 0x13
	TypeMBC4               Type = 0x15
	TypeMBC4RAM            Type = 0x16
	TypeMBC4RAMBatt        Type = 0x17
	TypeMBC5               Type = 0x19
	TypeMBC5RAM            Type = 0x1A
	TypeMBC5RAMBatt        Type = 0x1B
	TypeMBC5Rumble         Type = 0x1C
	TypeMBC5RumbleRAM      Type = 0x1D
	TypeMBC5RumbleRAMBatt  Type = 0x1E
)

// MBCFlavour identifies which bank-switching scheme a cartridge type maps
// to, independent of the RAM/battery/RTC/rumble feature bits (spec §3.3).
type MBCFlavour uint8

const (
	FlavourNone MBCFlavour = iota
	FlavourMBC1
	FlavourMBC2
	FlavourMBC3
	FlavourMBC4
	FlavourMBC5
)

// Features records the feature bits folded into the cartridge-type byte.
type Features struct {
	ExternalRAM bool
	Battery     bool
	RTC         bool
	Rumble      bool
}

func (t Type) Flavour() (MBCFlavour, Features) {
	switch t {
	case TypeROM:
		return FlavourNone, Features{}
	case TypeMBC1:
		return FlavourMBC1, Features{}
	case TypeMBC1RAM:
		return FlavourMBC1, Features{ExternalRAM: true}
	case TypeMBC1RAMBatt:
		return FlavourMBC1, Features{ExternalRAM: true, Battery: true}
	case TypeMBC2:
		return FlavourMBC2, Features{}
	case TypeMBC2Batt:
		return FlavourMBC2, Features{Battery: true}
	case TypeMBC3TimerBatt:
		return FlavourMBC3, Features{Battery: true, RTC: true}
	case TypeMBC3TimerRAMBatt:
		return FlavourMBC3, Features{ExternalRAM: true, Battery: true, RTC: true}
	case TypeMBC3:
		return FlavourMBC3, Features{}
	case TypeMBC3RAM:
		return FlavourMBC3, Features{ExternalRAM: true}
	case TypeMBC3RAMBatt:
		return FlavourMBC3, Features{ExternalRAM: true, Battery: true}
	case TypeMBC4, TypeMBC4RAM, TypeMBC4RAMBatt:
		return FlavourMBC4, Features{ExternalRAM: t != TypeMBC4, Battery: t == TypeMBC4RAMBatt}
	case TypeMBC5:
		return FlavourMBC5, Features{}
	case TypeMBC5RAM:
		return FlavourMBC5, Features{ExternalRAM: true}
	case TypeMBC5RAMBatt:
		return FlavourMBC5, Features{ExternalRAM: true, Battery: true}
	case TypeMBC5Rumble:
		return FlavourMBC5, Features{Rumble: true}
	case TypeMBC5RumbleRAM:
		return FlavourMBC5, Features{ExternalRAM: true, Rumble: true}
	case TypeMBC5RumbleRAMBatt:
		return FlavourMBC5, Features{ExternalRAM: true, Battery: true, Rumble: true}
	case TypeMMM01, TypeMMM01RAM, TypeMMM01RAMBatt:
		return FlavourMBC1, Features{} // unsupported; caller rejects by Type, not Flavour
	}
	return FlavourNone, Features{}
}

// Header is the parsed 0x0100-0x014F cartridge header (spec §3.3).
type Header struct {
	Title         string
	GBMode        GBMode
	Type          Type
	ROMBanks      int
	RAMBanks      int
	RAMBankSize   int
	HeaderChecksum uint8
}

var ramBanks = map[uint8]struct {
	count int
	size  int
}{
	0x00: {0, 0},
	0x02: {1, 8 * 1024},
	0x03: {4, 8 * 1024},
	0x04: {16, 8 * 1024},
	0x05: {8, 8 * 1024},
}

// ParseHeader parses the header embedded in rom (spec §3.3). A rom shorter
// than 0x150 bytes yields an error rather than a panic; Load reports that
// error as a LoadError.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, fmt.Errorf("cartridge: file too short for header (%d bytes)", len(rom))
	}
	h := Header{}

	switch rom[0x143] {
	case 0x80:
		h.GBMode = ModeSupportsCGB
		h.Title = string(rom[0x134:0x143])
	case 0xC0:
		h.GBMode = ModeCGBOnly
		h.Title = string(rom[0x134:0x143])
	default:
		h.GBMode = ModeDMGOnly
		h.Title = string(rom[0x134:0x144])
	}

	h.Type = Type(rom[0x147])
	h.ROMBanks = 2 << rom[0x148] // 32KiB * 2^n, in 16KiB banks
	if rb, ok := ramBanks[rom[0x149]]; ok {
		h.RAMBanks = rb.count
		h.RAMBankSize = rb.size
	}
	h.HeaderChecksum = rom[0x14D]

	// Invariant (spec §3.3): ROM-size field must not exceed file length;
	// truncate the advertised bank count to what's actually present.
	if present := len(rom) / 0x4000; h.ROMBanks > present {
		h.ROMBanks = present
	}

	return h, nil
}

// GameboyColor reports whether the cartridge declares any CGB
// compatibility (spec §3.3).
func (h Header) GameboyColor() bool {
	return h.GBMode == ModeCGBOnly || h.GBMode == ModeSupportsCGB
}

func (t Type) String() string {
	return fmt.Sprintf("0x%02X", uint8(t))
}
