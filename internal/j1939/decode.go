package j1939

import "encoding/binary"

// Специальные значения по J1939-71: "данные недоступны" и "ошибка датчика".
// Это не ошибки разбора — это валидный ответ протокола "измерения нет",
// поэтому декодеры возвращают (значение, ok), а не магические числа.
const (
	NotAvailable8  = 0xFF
	Error8         = 0xFE
	NotAvailable16 = 0xFFFF
	ErrorBase16    = 0xFE00
	NotAvailable32 = 0xFFFFFFFF
)

// Valid8 сообщает, несёт ли 8-битное сырое значение измерение.
func Valid8(raw uint8) bool {
	return raw != NotAvailable8 && raw != Error8
}

// Valid16 сообщает, несёт ли 16-битное сырое значение измерение.
// Весь диапазон от 0xFE00 зарезервирован под индикаторы ошибок.
func Valid16(raw uint16) bool {
	return raw < ErrorBase16
}

// DecodeEngineSpeed декодирует обороты двигателя из EEC1 (PGN 61444).
// SPN 190: байты 4-5, 0.125 об/мин на бит.
func DecodeEngineSpeed(data []byte) (float64, bool) {
	if len(data) < 5 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[3:5])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw) * 0.125, true
}

// DecodeCoolantTemp декодирует температуру охлаждающей жидкости из ET1
// (PGN 65262). SPN 110: байт 1, 1 °C на бит, смещение -40.
func DecodeCoolantTemp(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	raw := data[0]
	if !Valid8(raw) {
		return 0, false
	}
	return float64(raw) - 40, true
}

// DecodeVehicleSpeed декодирует скорость из CCVS (PGN 65265).
// SPN 84: байты 2-3, 1/256 км/ч на бит.
func DecodeVehicleSpeed(data []byte) (float64, bool) {
	if len(data) < 3 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[1:3])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw) / 256, true
}

// DecodeOilPressure декодирует давление масла из EFLP1 (PGN 65263).
// SPN 100: байт 4, 4 кПа на бит.
func DecodeOilPressure(data []byte) (float64, bool) {
	if len(data) < 4 {
		return 0, false
	}
	raw := data[3]
	if !Valid8(raw) {
		return 0, false
	}
	return float64(raw) * 4, true
}

// DecodeBoostPressure декодирует давление наддува из IC1 (PGN 65270).
// SPN 102: байт 2, 2 кПа на бит.
func DecodeBoostPressure(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := data[1]
	if !Valid8(raw) {
		return 0, false
	}
	return float64(raw) * 2, true
}

// DecodeFuelLevel декодирует уровень топлива из DD (PGN 65276).
// SPN 96: байт 2, 0.4 % на бит.
func DecodeFuelLevel(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := data[1]
	if !Valid8(raw) {
		return 0, false
	}
	return float64(raw) * 0.4, true
}

// DecodeBatteryVoltage декодирует напряжение АКБ из VEP1 (PGN 65271).
// SPN 168: байты 7-8, 0.05 В на бит.
func DecodeBatteryVoltage(data []byte) (float64, bool) {
	if len(data) < 8 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[6:8])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw) * 0.05, true
}

// DecodeCurrentGear декодирует текущую передачу из ETC2 (PGN 61445).
// SPN 523: байт 4, смещение -125. Задние передачи закодированы ниже
// нейтрали, поэтому смещение применяется до приведения к знаковому типу.
func DecodeCurrentGear(data []byte) (int8, bool) {
	if len(data) < 4 {
		return 0, false
	}
	raw := data[3]
	if !Valid8(raw) {
		return 0, false
	}
	return int8(int16(raw) - 125), true
}

// DecodeTransOilTemp декодирует температуру масла КПП из TRF1 (PGN 65272).
// SPN 177: байты 5-6, 0.03125 °C на бит, смещение -273.
func DecodeTransOilTemp(data []byte) (float64, bool) {
	if len(data) < 6 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[4:6])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw)*0.03125 - 273, true
}

// DecodeEngineHours декодирует наработку двигателя из HOURS (PGN 65253).
// SPN 247: байты 1-4, 0.05 ч на бит.
func DecodeEngineHours(data []byte) (float64, bool) {
	if len(data) < 4 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint32(data[0:4])
	if raw == NotAvailable32 {
		return 0, false
	}
	return float64(raw) * 0.05, true
}

// DecodeFuelRate декодирует расход топлива из LFE (PGN 65266).
// SPN 183: байты 1-2, 0.05 л/ч на бит.
func DecodeFuelRate(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[0:2])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw) * 0.05, true
}

// DecodeThrottlePosition декодирует положение педали акселератора из EEC2
// (PGN 61443). SPN 91: байт 2, 0.4 % на бит.
func DecodeThrottlePosition(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := data[1]
	if !Valid8(raw) {
		return 0, false
	}
	return float64(raw) * 0.4, true
}

// DecodeAmbientTemp декодирует температуру окружающего воздуха из AMB
// (PGN 65269). SPN 171: байты 4-5, 0.03125 °C на бит, смещение -273.
func DecodeAmbientTemp(data []byte) (float64, bool) {
	if len(data) < 5 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(data[3:5])
	if !Valid16(raw) {
		return 0, false
	}
	return float64(raw)*0.03125 - 273, true
}
