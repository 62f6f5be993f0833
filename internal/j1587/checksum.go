package j1587

// Контрольная сумма J1708: сумма всех байт сообщения, включая байт
// контрольной суммы, должна быть равна нулю по модулю 256. Это слабый
// детектирующий код — перестановку байт он не ловит, поэтому прошедшее
// проверку сообщение "скорее всего корректно", не более того.

// ValidateChecksum проверяет сообщение вместе с его последним байтом.
func ValidateChecksum(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum == 0
}

// CalculateChecksum возвращает байт, дописываемый к исходящему сообщению:
// дополнение суммы до двух.
func CalculateChecksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return uint8(0x100 - uint16(sum))
}
