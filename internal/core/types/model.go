package types

// Model selects which hardware variant the core initializes as. Colour
// compatibility is otherwise driven by the cartridge header (spec §3.3);
// Model only decides how an ambiguous ("supports CGB") cartridge is booted.
type Model uint8

const (
	ModelAuto Model = iota
	ModelDMG
	ModelCGB
)

// ClockSpeed is the master clock rate in Hz (spec Glossary: T-cycle).
const ClockSpeed = 4194304

// FrameRate is the nominal refresh rate the core is paced against.
const FrameRate = 60
