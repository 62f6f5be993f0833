package j1587

// Ограничения J1708: сообщение не длиннее 21 байта (MID + до 19 байт
// данных + контрольная сумма), не короче двух.
const (
	MaxMessageLength = 21
	MinMessageLength = 2
	// MaxParamsPerMessage — предел полей PID в одном сообщении.
	MaxParamsPerMessage = 10
	// MaxParamDataLength — предел данных одного поля; более длинные поля
	// считаются ошибкой разбора, но обход продолжается.
	MaxParamDataLength = 8
)

// Известные PID приложения J1587.
const (
	PIDRoadSpeed      = 84
	PIDCruiseSpeed    = 86
	PIDThrottle       = 91
	PIDEngineLoad     = 92
	PIDFuelLevel      = 96
	PIDOilPressure    = 100
	PIDBoostPressure  = 102
	PIDIntakeTemp     = 105
	PIDBaroPressure   = 108
	PIDCoolantTemp    = 110
	PIDBatteryVoltage = 168
	PIDAmbientTemp    = 171
	PIDTransOilTemp   = 177
	PIDFuelRate       = 183
	PIDEngineSpeed    = 190
	PIDActiveDTC      = 194
	PIDHistoricDTC    = 195
	PIDSoftwareID     = 233
	PIDComponentID    = 234
	PIDTotalDistance  = 245
	PIDEngineHours    = 247
)

// Parameter — одно поле PID внутри сообщения.
type Parameter struct {
	PID        uint8
	Data       [MaxParamDataLength]byte
	DataLength uint8
	Valid      bool // false у полей длиннее 8 байт
}

// Message — разобранное сообщение J1587: MID, поля PID и флаг контрольной
// суммы.
type Message struct {
	MID           uint8
	Params        [MaxParamsPerMessage]Parameter
	ParamCount    uint8
	ChecksumValid bool
	Raw           [MaxMessageLength]byte
	RawLength     uint8
}

// Таблица длин полей PID. 0 — переменная длина, следующий байт содержит
// явную длину. PID, которых нет в таблице, из расширенного диапазона
// 192-254 тоже переменной длины.
var pidLengths = map[uint8]uint8{
	84:  1, // Road Speed (0.5 mph/bit)
	85:  1, // Vehicle Speed Sensor
	86:  1, // Cruise Control Set Speed
	91:  1, // Throttle Position (0.4%/bit)
	92:  1, // Percent Load
	96:  1, // Fuel Level 1 (0.5%/bit)
	97:  1, // Fuel Level 2
	100: 1, // Engine Oil Pressure (4 kPa/bit)
	102: 1, // Boost Pressure (2 kPa/bit)
	105: 1, // Intake Manifold Temperature
	108: 1, // Barometric Pressure
	110: 1, // Engine Coolant Temperature
	168: 1, // Battery Voltage (0.05V/bit)
	171: 1, // Ambient Air Temperature
	174: 1, // Fuel Temperature
	175: 1, // Engine Oil Temperature
	177: 2, // Transmission Oil Temperature
	178: 1, // Transmission Oil Pressure
	183: 2, // Fuel Rate
	184: 2, // Instantaneous Fuel Economy
	190: 2, // Engine Speed (0.25 rpm/bit)
	191: 2, // Transmission Output Shaft Speed
	194: 0, // Active Diagnostic Codes (переменная)
	195: 0, // Previously Active Codes (переменная)
	233: 0, // Software ID (переменная)
	234: 0, // Component ID (переменная)
	245: 4, // Total Vehicle Distance
	247: 4, // Engine Total Hours
}

// PIDLength возвращает длину данных PID: фиксированное число байт или 0
// для переменной длины.
func PIDLength(pid uint8) uint8 {
	if length, ok := pidLengths[pid]; ok {
		return length
	}
	// Неизвестные PID считаются переменной длины
	return 0
}
