package j1939

// DM1 (PGN 65226) — активные диагностические коды неисправностей.
// Первые два байта — состояние ламп, дальше 4-байтовые записи DTC.
// При одном коде сообщение приходит одиночным кадром, при нескольких —
// через транспортный протокол (BAM).

// MaxDTCsPerMessage — предел записей DTC на одно сообщение DM1.
// 1785-байтовое TP-сообщение вмещает (1785-2)/4 = 445 записей, но столько
// активных кодов разом не бывает даже на очень больном грузовике.
const MaxDTCsPerMessage = 32

// LampStatus — флаги контрольных ламп из байтов 0-1 сообщения DM1.
// Каждая лампа занимает 2 бита, здесь проверяется только бит "включена".
type LampStatus struct {
	Protect     bool
	AmberWarn   bool
	RedStop     bool
	Malfunction bool // MIL
}

// DTC — один диагностический код: подозреваемый параметр (SPN), вид отказа
// (FMI) и счётчик возникновений.
type DTC struct {
	SPN uint32
	FMI uint8
	OC  uint8
}

// DecodeDM1 разбирает полезную нагрузку DM1: одиночный кадр или собранное
// TP-сообщение. Возвращает false при нагрузке короче двух байт ламп.
func DecodeDM1(data []byte) (LampStatus, []DTC, bool) {
	if len(data) < 2 {
		return LampStatus{}, nil, false
	}

	lamps := LampStatus{
		Protect:     data[0]&0x04 != 0,
		AmberWarn:   data[0]&0x10 != 0,
		RedStop:     data[1]&0x04 != 0,
		Malfunction: data[1]&0x10 != 0,
	}

	var dtcs []DTC
	for off := 2; off+4 <= len(data) && len(dtcs) < MaxDTCsPerMessage; off += 4 {
		// SPN: 16 младших бит + 3 старших из битов 5-7 третьего байта
		spn := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2]&0xE0)<<11
		fmi := data[off+2] & 0x1F
		oc := data[off+3] & 0x7F

		if spn == 0 && fmi == 0 {
			// Заполнитель "нет неисправности", не считается
			continue
		}
		dtcs = append(dtcs, DTC{SPN: spn, FMI: fmi, OC: oc})
	}

	return lamps, dtcs, true
}
