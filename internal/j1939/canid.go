package j1939

// Структура 29-битного идентификатора CAN по SAE J1939:
//
//	Priority (3) | Reserved (1) | Data Page (1) | PDU Format (8) | PDU Specific (8) | Source Address (8)
//	  биты 28-26 |    бит 25    |    бит 24     |   биты 23-16   |    биты 15-8     |     биты 7-0
//
// Если PDU Format < 240 (PDU1), поле PDU Specific — это адрес назначения и
// НЕ входит в PGN. Если PDU Format >= 240 (PDU2), PDU Specific — это
// расширение группы и входит в PGN.

const (
	// AddrGlobal — широковещательный адрес назначения.
	AddrGlobal = 0xFF
	// AddrNull — нулевой/ошибочный адрес.
	AddrNull = 0xFE
)

// ExtractPGN извлекает 18-битный PGN из 29-битного идентификатора CAN.
// Ветвление PDU1/PDU2 критично: для PDU1 байт PDU Specific — адрес
// назначения, и включение его в PGN приписало бы кадр чужой группе.
func ExtractPGN(canID uint32) uint32 {
	pf := (canID >> 16) & 0xFF
	ps := (canID >> 8) & 0xFF
	dp := (canID >> 24) & 0x03

	if pf < 240 {
		// PDU1: PS — адрес назначения, не часть PGN
		return dp<<16 | pf<<8
	}
	// PDU2: PS — расширение группы, часть PGN
	return dp<<16 | pf<<8 | ps
}

// ExtractSourceAddress извлекает адрес источника (SA).
func ExtractSourceAddress(canID uint32) uint8 {
	return uint8(canID & 0xFF)
}

// ExtractPriority извлекает приоритет сообщения (0-7, меньше — выше).
func ExtractPriority(canID uint32) uint8 {
	return uint8((canID >> 26) & 0x07)
}

// ExtractDestination извлекает адрес назначения. Для PDU2 (широковещание)
// возвращает AddrGlobal.
func ExtractDestination(canID uint32) uint8 {
	pf := (canID >> 16) & 0xFF
	if pf < 240 {
		return uint8((canID >> 8) & 0xFF)
	}
	return AddrGlobal
}

// BuildCANID собирает 29-битный идентификатор из PGN, адреса источника и
// приоритета. Обратная операция к ExtractPGN для PGN формата PDU2; для PDU1
// адрес назначения из одного PGN не восстановим — это документированное
// ограничение, а не дефект.
func BuildCANID(pgn uint32, sourceAddress uint8, priority uint8) uint32 {
	return uint32(priority&0x07)<<26 | pgn<<8 | uint32(sourceAddress)
}
