package j1939

// Основные PGN, используемые на приборной панели (SAE J1939-71).
const (
	PGNRequest uint32 = 59904 // 0xEA00 - Request
	PGNTPCM    uint32 = 60416 // 0xEC00 - Transport Protocol Connection Management
	PGNTPDT    uint32 = 60160 // 0xEB00 - Transport Protocol Data Transfer

	PGNEEC1  uint32 = 61444 // 0xF004 - Electronic Engine Controller 1
	PGNEEC2  uint32 = 61443 // 0xF003 - Electronic Engine Controller 2
	PGNETC1  uint32 = 61442 // 0xF002 - Electronic Transmission Controller 1
	PGNETC2  uint32 = 61445 // 0xF005 - Electronic Transmission Controller 2
	PGNET1   uint32 = 65262 // 0xFEEE - Engine Temperature 1
	PGNEFLP1 uint32 = 65263 // 0xFEEF - Engine Fluid Level/Pressure 1
	PGNCCVS  uint32 = 65265 // 0xFEF1 - Cruise Control/Vehicle Speed
	PGNLFE   uint32 = 65266 // 0xFEF2 - Fuel Economy (Liquid)
	PGNAMB   uint32 = 65269 // 0xFEF5 - Ambient Conditions
	PGNIC1   uint32 = 65270 // 0xFEF6 - Intake/Exhaust Conditions 1
	PGNVEP1  uint32 = 65271 // 0xFEF7 - Vehicle Electrical Power 1
	PGNTRF1  uint32 = 65272 // 0xFEF8 - Transmission Fluids 1
	PGNDD    uint32 = 65276 // 0xFEFC - Dash Display
	PGNHours uint32 = 65253 // 0xFEE5 - Engine Hours, Revolutions
	PGNDM1   uint32 = 65226 // 0xFECA - Active Diagnostic Trouble Codes
	PGNDM2   uint32 = 65227 // 0xFECB - Previously Active Diagnostic Trouble Codes
)

// MaxDataLength — длина данных стандартного кадра CAN.
const MaxDataLength = 8

// Message — разобранное сообщение J1939. Строится на каждый принятый кадр
// и сразу потребляется декодером, нигде не хранится.
type Message struct {
	PGN           uint32
	SourceAddress uint8
	Destination   uint8 // AddrGlobal для широковещательных (PDU2)
	Priority      uint8
	Data          [MaxDataLength]byte
	DataLength    uint8
	TimestampMs   int64
}

// ParseFrame разбирает сырой кадр CAN в структуру Message.
// Возвращает false при недопустимой длине данных.
func ParseFrame(canID uint32, data []byte, timestampMs int64) (Message, bool) {
	if len(data) == 0 || len(data) > MaxDataLength {
		return Message{}, false
	}

	msg := Message{
		PGN:           ExtractPGN(canID),
		SourceAddress: ExtractSourceAddress(canID),
		Destination:   ExtractDestination(canID),
		Priority:      ExtractPriority(canID),
		DataLength:    uint8(len(data)),
		TimestampMs:   timestampMs,
	}
	copy(msg.Data[:], data)

	return msg, true
}
