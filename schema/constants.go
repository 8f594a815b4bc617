package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for acquisition storage.
	DatabaseBackend string

	// AcquisitionMode represents the oscilloscope acquisition mode used for a capture.
	AcquisitionMode string

	// Direction selects which ramp slope the analyzer looks for.
	Direction string

	// TransportKind names the physical link used to reach an instrument.
	TransportKind string

	// DialectName names a vendor command dialect.
	DialectName string

	// RunState is a stage of the acquisition state machine.
	RunState string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All acquisition modes supported.
const (
	NormalMode     AcquisitionMode = "NORMAL" // default
	HighResMode    AcquisitionMode = "HRESOLUTION"
	PeakDetectMode AcquisitionMode = "PEAK"
	AverageMode    AcquisitionMode = "AVERAGE"
)

// All ramp directions supported.
const (
	ForwardDirection Direction = "forward" // rising scan voltage
	ReverseDirection Direction = "reverse" // falling scan voltage
	NoDirection      Direction = "none"    // select by pair index
)

// All transports supported.
const (
	SocketTransport    TransportKind = "socket"
	PrologixTransport  TransportKind = "prologix"
	SimulatorTransport TransportKind = "sim"
)

// All vendor dialects supported.
const (
	KeysightDialect DialectName = "keysight"
	RigolDialect    DialectName = "rigol"
)

// Acquisition state machine stages.
const (
	StateIdle        RunState = "idle"
	StateConfiguring RunState = "configuring"
	StateTriggered   RunState = "triggered"
	StateWaiting     RunState = "waiting"
	StateDraining    RunState = "draining"
	StateComplete    RunState = "complete"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid storage backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidAcquisitionModes lists all valid acquisition modes.
var ValidAcquisitionModes = map[AcquisitionMode]struct{}{
	NormalMode:     {},
	HighResMode:    {},
	PeakDetectMode: {},
	AverageMode:    {},
}

// ValidDirections lists all valid ramp directions.
var ValidDirections = map[Direction]struct{}{
	ForwardDirection: {},
	ReverseDirection: {},
	NoDirection:      {},
}

// ValidTransports lists all valid transports.
var ValidTransports = map[TransportKind]struct{}{
	SocketTransport:    {},
	PrologixTransport:  {},
	SimulatorTransport: {},
}

// ValidDialects lists all valid scope dialects.
var ValidDialects = map[DialectName]struct{}{
	KeysightDialect: {},
	RigolDialect:    {},
}
