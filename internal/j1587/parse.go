package j1587

// ParseMessage разбирает буфер [MID][поток PID][checksum] в структуру
// сообщения. false — сообщение короче минимума или контрольная сумма не
// сходится; частично разобранный хвост ошибкой не считается: на общей
// зашумлённой шине обрезанное последнее поле — обычное дело.
func ParseMessage(data []byte) (Message, bool) {
	if len(data) < MinMessageLength || len(data) > MaxMessageLength {
		return Message{}, false
	}

	var msg Message
	copy(msg.Raw[:], data)
	msg.RawLength = uint8(len(data))

	msg.ChecksumValid = ValidateChecksum(data)
	if !msg.ChecksumValid {
		return msg, false
	}

	msg.MID = data[0]

	offset := 1
	dataEnd := len(data) - 1 // без байта контрольной суммы

	for offset < dataEnd && msg.ParamCount < MaxParamsPerMessage {
		param := &msg.Params[msg.ParamCount]
		param.PID = data[offset]
		offset++

		length := int(PIDLength(param.PID))
		if length == 0 {
			// Переменная длина: следующий байт — явная длина
			if offset >= dataEnd {
				break
			}
			length = int(data[offset])
			offset++
		}

		if offset+length > dataEnd {
			// Объявленная длина выходит за сообщение — обход окончен
			break
		}

		param.DataLength = uint8(length)
		if length > 0 && length <= MaxParamDataLength {
			copy(param.Data[:], data[offset:offset+length])
			param.Valid = true
		}
		// Поля длиннее 8 байт остаются невалидными, но пропускаются
		// по объявленной длине

		offset += length
		msg.ParamCount++
	}

	return msg, true
}

// Param возвращает первое поле с данным PID.
func (m *Message) Param(pid uint8) (Parameter, bool) {
	for i := uint8(0); i < m.ParamCount; i++ {
		if m.Params[i].PID == pid {
			return m.Params[i], true
		}
	}
	return Parameter{}, false
}

// BuildMessage собирает исходящее сообщение с контрольной суммой.
// Используется генератором трафика и тестами.
func BuildMessage(mid uint8, body []byte) []byte {
	out := make([]byte, 0, len(body)+2)
	out = append(out, mid)
	out = append(out, body...)
	out = append(out, CalculateChecksum(out))
	return out
}
