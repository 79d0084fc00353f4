package hw

//go:generate go tool stringer -type=Arm7Event,Arm9Event,MachineEvent -output=events_string.go

// Arm7Event identifies a slot in the ARM7 schedule.
type Arm7Event uint8

const (
	Arm7EvShutdown Arm7Event = iota
	Arm7EvDsSlotROM
	Arm7EvDsSlotSPI
	Arm7EvSPI
	Arm7EvAudio
	Arm7EvTimer0
	Arm7EvTimer1
	Arm7EvTimer2
	Arm7EvTimer3
)

const nArm7Events = int(Arm7EvTimer3) + 1

// Arm9Event identifies a slot in the ARM9 schedule.
type Arm9Event uint8

const (
	Arm9EvDsSlotROM Arm9Event = iota
	Arm9EvDsSlotSPI
	Arm9EvDiv
	Arm9EvSqrt
	Arm9EvTimer0
	Arm9EvTimer1
	Arm9EvTimer2
	Arm9EvTimer3
)

const nArm9Events = int(Arm9EvTimer3) + 1

// MachineEvent identifies a slot in the machine-level schedule. The
// three video slots are exclusive: the video state machine keeps at
// most one of them armed.
type MachineEvent uint8

const (
	MachineEvEndHDraw MachineEvent = iota
	MachineEvEndHBlank
	MachineEvFinishFrame
	MachineEvShutdown
)

const nMachineEvents = int(MachineEvShutdown) + 1

type Arm7Schedule = Schedule[Timestamp, Arm7Event]
type Arm9Schedule = Schedule[Timestamp9, Arm9Event]
type MachineSchedule = Schedule[Timestamp, MachineEvent]

func NewArm7Schedule() *Arm7Schedule {
	return NewSchedule[Timestamp, Arm7Event](nArm7Events)
}

func NewArm9Schedule() *Arm9Schedule {
	return NewSchedule[Timestamp9, Arm9Event](nArm9Events)
}

func NewMachineSchedule() *MachineSchedule {
	return NewSchedule[Timestamp, MachineEvent](nMachineEvents)
}
