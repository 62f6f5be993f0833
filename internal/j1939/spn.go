package j1939

import "sort"

// SPNDesc описывает расположение сигнала (SPN) в 8-байтовой полезной
// нагрузке его PGN: смещение в байтах и битах, длина в битах, масштаб и
// аддитивное смещение (применяется после масштабирования).
type SPNDesc struct {
	PGN       uint32
	SPN       uint32
	Name      string
	Unit      string
	StartByte uint8 // 0-7
	StartBit  uint8 // 0-7 внутри байта
	BitLength uint8 // 1-32
	Scale     float64
	Offset    float64
	Min       float64
	Max       float64
}

// Каталог сигналов, которые панель умеет извлекать обобщённым путём.
// Отсортирован по (PGN, SPN) — Lookup делает двоичный поиск.
var spnCatalog = []SPNDesc{
	{PGN: PGNETC1, SPN: 191, Name: "Transmission Output Shaft Speed", Unit: "rpm", StartByte: 1, StartBit: 0, BitLength: 16, Scale: 0.125, Offset: 0, Min: 0, Max: 8031.875},
	{PGN: PGNEEC2, SPN: 91, Name: "Accelerator Pedal Position", Unit: "%", StartByte: 1, StartBit: 0, BitLength: 8, Scale: 0.4, Offset: 0, Min: 0, Max: 100},
	{PGN: PGNEEC2, SPN: 92, Name: "Engine Percent Load", Unit: "%", StartByte: 2, StartBit: 0, BitLength: 8, Scale: 1, Offset: 0, Min: 0, Max: 250},
	{PGN: PGNEEC1, SPN: 190, Name: "Engine Speed", Unit: "rpm", StartByte: 3, StartBit: 0, BitLength: 16, Scale: 0.125, Offset: 0, Min: 0, Max: 8031.875},
	{PGN: PGNEEC1, SPN: 513, Name: "Actual Engine Percent Torque", Unit: "%", StartByte: 2, StartBit: 0, BitLength: 8, Scale: 1, Offset: -125, Min: -125, Max: 125},
	{PGN: PGNETC2, SPN: 523, Name: "Transmission Current Gear", Unit: "", StartByte: 3, StartBit: 0, BitLength: 8, Scale: 1, Offset: -125, Min: -125, Max: 125},
	{PGN: PGNETC2, SPN: 524, Name: "Transmission Selected Gear", Unit: "", StartByte: 0, StartBit: 0, BitLength: 8, Scale: 1, Offset: -125, Min: -125, Max: 125},
	{PGN: PGNHours, SPN: 247, Name: "Engine Total Hours", Unit: "h", StartByte: 0, StartBit: 0, BitLength: 32, Scale: 0.05, Offset: 0, Min: 0, Max: 210554060.75},
	{PGN: PGNDM1, SPN: 1213, Name: "Malfunction Indicator Lamp", Unit: "", StartByte: 1, StartBit: 4, BitLength: 2, Scale: 1, Offset: 0, Min: 0, Max: 3},
	{PGN: PGNET1, SPN: 110, Name: "Engine Coolant Temperature", Unit: "°C", StartByte: 0, StartBit: 0, BitLength: 8, Scale: 1, Offset: -40, Min: -40, Max: 210},
	{PGN: PGNET1, SPN: 175, Name: "Engine Oil Temperature", Unit: "°C", StartByte: 2, StartBit: 0, BitLength: 16, Scale: 0.03125, Offset: -273, Min: -273, Max: 1735},
	{PGN: PGNEFLP1, SPN: 100, Name: "Engine Oil Pressure", Unit: "kPa", StartByte: 3, StartBit: 0, BitLength: 8, Scale: 4, Offset: 0, Min: 0, Max: 1000},
	{PGN: PGNCCVS, SPN: 84, Name: "Wheel-Based Vehicle Speed", Unit: "km/h", StartByte: 1, StartBit: 0, BitLength: 16, Scale: 0.00390625, Offset: 0, Min: 0, Max: 250.996},
	{PGN: PGNCCVS, SPN: 86, Name: "Cruise Control Set Speed", Unit: "km/h", StartByte: 5, StartBit: 0, BitLength: 8, Scale: 1, Offset: 0, Min: 0, Max: 250},
	{PGN: PGNLFE, SPN: 183, Name: "Engine Fuel Rate", Unit: "l/h", StartByte: 0, StartBit: 0, BitLength: 16, Scale: 0.05, Offset: 0, Min: 0, Max: 3212.75},
	{PGN: PGNLFE, SPN: 184, Name: "Instantaneous Fuel Economy", Unit: "km/l", StartByte: 2, StartBit: 0, BitLength: 16, Scale: 0.001953125, Offset: 0, Min: 0, Max: 125.5},
	{PGN: PGNAMB, SPN: 108, Name: "Barometric Pressure", Unit: "kPa", StartByte: 0, StartBit: 0, BitLength: 8, Scale: 0.5, Offset: 0, Min: 0, Max: 125},
	{PGN: PGNAMB, SPN: 171, Name: "Ambient Air Temperature", Unit: "°C", StartByte: 3, StartBit: 0, BitLength: 16, Scale: 0.03125, Offset: -273, Min: -273, Max: 1735},
	{PGN: PGNIC1, SPN: 102, Name: "Boost Pressure", Unit: "kPa", StartByte: 1, StartBit: 0, BitLength: 8, Scale: 2, Offset: 0, Min: 0, Max: 500},
	{PGN: PGNIC1, SPN: 105, Name: "Intake Manifold Temperature", Unit: "°C", StartByte: 2, StartBit: 0, BitLength: 8, Scale: 1, Offset: -40, Min: -40, Max: 210},
	{PGN: PGNVEP1, SPN: 168, Name: "Battery Potential", Unit: "V", StartByte: 6, StartBit: 0, BitLength: 16, Scale: 0.05, Offset: 0, Min: 0, Max: 3212.75},
	{PGN: PGNTRF1, SPN: 177, Name: "Transmission Oil Temperature", Unit: "°C", StartByte: 4, StartBit: 0, BitLength: 16, Scale: 0.03125, Offset: -273, Min: -273, Max: 1735},
	{PGN: PGNDD, SPN: 96, Name: "Fuel Level 1", Unit: "%", StartByte: 1, StartBit: 0, BitLength: 8, Scale: 0.4, Offset: 0, Min: 0, Max: 100},
}

func init() {
	sort.Slice(spnCatalog, func(i, j int) bool {
		if spnCatalog[i].PGN != spnCatalog[j].PGN {
			return spnCatalog[i].PGN < spnCatalog[j].PGN
		}
		return spnCatalog[i].SPN < spnCatalog[j].SPN
	})
}

// LookupSPN возвращает дескриптор сигнала по паре (PGN, SPN).
func LookupSPN(pgn, spn uint32) (SPNDesc, bool) {
	i := sort.Search(len(spnCatalog), func(i int) bool {
		d := spnCatalog[i]
		return d.PGN > pgn || (d.PGN == pgn && d.SPN >= spn)
	})
	if i < len(spnCatalog) && spnCatalog[i].PGN == pgn && spnCatalog[i].SPN == spn {
		return spnCatalog[i], true
	}
	return SPNDesc{}, false
}

// CatalogForPGN возвращает дескрипторы всех известных сигналов PGN.
// Возвращаемый срез смотрит в каталог — только для чтения.
func CatalogForPGN(pgn uint32) []SPNDesc {
	lo := sort.Search(len(spnCatalog), func(i int) bool { return spnCatalog[i].PGN >= pgn })
	hi := sort.Search(len(spnCatalog), func(i int) bool { return spnCatalog[i].PGN > pgn })
	return spnCatalog[lo:hi]
}

// extractBits вычитывает битовое поле из полезной нагрузки.
// Многобайтовые поля идут младшим байтом вперёд (Intel byte order),
// как предписывает J1939-71.
func extractBits(data []byte, startByte, startBit, bitLength uint8) (uint32, bool) {
	lastByte := int(startByte) + (int(startBit)+int(bitLength)+7)/8 - 1
	if lastByte >= len(data) || bitLength == 0 || bitLength > 32 {
		return 0, false
	}

	var raw uint64
	for i := lastByte; i >= int(startByte); i-- {
		raw = raw<<8 | uint64(data[i])
	}
	raw >>= startBit

	if bitLength < 64 {
		raw &= (1 << bitLength) - 1
	}
	return uint32(raw), true
}

// DecodeSPN извлекает физическое значение сигнала из сообщения по его
// дескриптору. false — сигнал не для этого PGN, поле не помещается в
// данные или сырое значение — индикатор "нет данных"/"ошибка".
func DecodeSPN(msg Message, desc SPNDesc) (float64, bool) {
	if msg.PGN != desc.PGN {
		return 0, false
	}

	raw, ok := extractBits(msg.Data[:msg.DataLength], desc.StartByte, desc.StartBit, desc.BitLength)
	if !ok {
		return 0, false
	}

	switch {
	case desc.BitLength <= 2:
		// 2-битные статусы: 3 = недоступно
		if raw == 3 {
			return 0, false
		}
	case desc.BitLength <= 8:
		if !Valid8(uint8(raw)) {
			return 0, false
		}
	case desc.BitLength <= 16:
		if !Valid16(uint16(raw)) {
			return 0, false
		}
	default:
		if raw == NotAvailable32 {
			return 0, false
		}
	}

	value := float64(raw)*desc.Scale + desc.Offset
	if value < desc.Min || value > desc.Max {
		return 0, false
	}
	return value, true
}
