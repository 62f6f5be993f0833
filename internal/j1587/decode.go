package j1587

// Декодеры полей PID. Масштабы взяты из J1587 и намеренно расходятся с
// одноимёнными сигналами J1939: температура охлаждающей жидкости здесь в
// градусах Фаренгейта, температура масла КПП — 0.25 °C на бит вместо
// 0.03125. Унифицировать их нельзя, это два разных стандарта.

// DecodeRoadSpeed декодирует PID 84: 0.5 мили/ч на бит, результат в км/ч.
func DecodeRoadSpeed(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	mph := float64(data[0]) * 0.5
	return mph * 1.60934, true
}

// DecodeEngineRPM декодирует PID 190: два байта младшим вперёд,
// 0.25 об/мин на бит.
func DecodeEngineRPM(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := uint16(data[0]) | uint16(data[1])<<8
	return float64(raw) * 0.25, true
}

// DecodeCoolantTemp декодирует PID 110: 1 °F на бит, результат в °C.
func DecodeCoolantTemp(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	fahrenheit := float64(data[0])
	return (fahrenheit - 32) * 5 / 9, true
}

// DecodeOilPressure декодирует PID 100: 4 кПа на бит.
func DecodeOilPressure(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	return float64(data[0]) * 4, true
}

// DecodeTransOilTemp декодирует PID 177: два байта младшим вперёд,
// 0.25 °C на бит, смещение -273.
func DecodeTransOilTemp(data []byte) (float64, bool) {
	if len(data) < 2 {
		return 0, false
	}
	raw := uint16(data[0]) | uint16(data[1])<<8
	return float64(raw)*0.25 - 273, true
}

// DecodeBatteryVoltage декодирует PID 168: 0.05 В на бит.
func DecodeBatteryVoltage(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	return float64(data[0]) * 0.05, true
}

// DecodeFuelLevel декодирует PID 96: 0.5 % на бит.
func DecodeFuelLevel(data []byte) (float64, bool) {
	if len(data) < 1 {
		return 0, false
	}
	return float64(data[0]) * 0.5, true
}
