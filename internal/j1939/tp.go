package j1939

// Транспортный протокол J1939-21 (TP). Панель — пассивный слушатель, поэтому
// поддерживается только широковещательный режим BAM: TP.CM с управляющим
// байтом 0x20 открывает сессию, дальше идут кадры TP.DT по 7 байт данных.
// Адресные RTS/CTS-соединения игнорируются.

// Управляющие байты TP.CM.
const (
	TPControlRTS   = 16
	TPControlCTS   = 17
	TPControlEOM   = 19
	TPControlBAM   = 32
	TPControlAbort = 255
)

const (
	// TPMaxMessageSize — предел размера многопакетного сообщения:
	// 255 пакетов по 7 байт.
	TPMaxMessageSize = 1785
	// TPTimeoutMs — максимальный промежуток между пакетами сессии (T1).
	TPTimeoutMs = 750
	// tpSessionCount — размер пула одновременных сессий. Реальный трафик
	// панели — один-два источника DM1, четырёх хватает с запасом.
	tpSessionCount = 4
	// tpBytesPerPacket — полезных байт в одном кадре TP.DT.
	tpBytesPerPacket = 7
)

type tpState uint8

const (
	tpIdle tpState = iota
	tpReceiving
	tpComplete
	tpError
)

type tpSession struct {
	state         tpState
	sourceAddress uint8
	targetPGN     uint32
	totalSize     uint16
	totalPackets  uint8
	receivedCount uint8
	lastPacketMs  int64
	buf           [TPMaxMessageSize]byte
}

// Reassembler собирает многопакетные BAM-сообщения из кадров TP.CM/TP.DT.
// Владелец — единственная горутина приёма CAN, внутренней блокировки нет.
type Reassembler struct {
	sessions [tpSessionCount]tpSession

	// Счётчики для диагностики, не влияют на поведение.
	CompletedMessages uint32
	DroppedBAMs       uint32
	SequenceErrors    uint32
	TimeoutErrors     uint32
	ExpiredSessions   uint32
}

// NewReassembler создаёт сборщик с пустым пулом сессий.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// session находит сессию источника в любом состоянии, кроме Idle.
func (r *Reassembler) session(sourceAddress uint8) *tpSession {
	for i := range r.sessions {
		s := &r.sessions[i]
		if s.state != tpIdle && s.sourceAddress == sourceAddress {
			return s
		}
	}
	return nil
}

// HandleCM обрабатывает кадр TP.CM (PGN 60416). Возвращает true, если кадр
// открыл новую сессию.
func (r *Reassembler) HandleCM(msg Message) bool {
	if msg.PGN != PGNTPCM || msg.DataLength < 8 {
		return false
	}
	if msg.Data[0] != TPControlBAM {
		// RTS/CTS/EOM/Abort — адресный режим, панель в нём не участвует
		return false
	}

	totalSize := uint16(msg.Data[1]) | uint16(msg.Data[2])<<8
	totalPackets := msg.Data[3]
	targetPGN := uint32(msg.Data[5]) | uint32(msg.Data[6])<<8 | uint32(msg.Data[7])<<16

	if totalSize == 0 || totalSize > TPMaxMessageSize || totalPackets == 0 {
		return false
	}

	// Повторный BAM того же источника перезапускает его сессию,
	// в каком бы состоянии она ни была (в том числе Error).
	s := r.session(msg.SourceAddress)
	if s == nil {
		for i := range r.sessions {
			if r.sessions[i].state == tpIdle {
				s = &r.sessions[i]
				break
			}
		}
	}
	if s == nil {
		// Пул исчерпан: BAM молча отбрасывается, это не ошибка
		r.DroppedBAMs++
		return false
	}

	*s = tpSession{
		state:         tpReceiving,
		sourceAddress: msg.SourceAddress,
		targetPGN:     targetPGN,
		totalSize:     totalSize,
		totalPackets:  totalPackets,
		lastPacketMs:  msg.TimestampMs,
	}
	return true
}

// HandleDT обрабатывает кадр TP.DT (PGN 60160). Возвращает true, когда
// сессия источника собрана полностью — данные забираются через GetData.
func (r *Reassembler) HandleDT(msg Message) bool {
	if msg.PGN != PGNTPDT || msg.DataLength < 1 {
		return false
	}

	s := r.session(msg.SourceAddress)
	if s == nil || s.state != tpReceiving {
		return false
	}

	if msg.TimestampMs-s.lastPacketMs > TPTimeoutMs {
		s.state = tpError
		r.TimeoutErrors++
		return false
	}

	seq := msg.Data[0]
	if seq != s.receivedCount+1 {
		// Строгий порядок: пропуск или дубль — жёсткий отказ сборки
		s.state = tpError
		r.SequenceErrors++
		return false
	}

	offset := int(seq-1) * tpBytesPerPacket
	for i := 0; i < tpBytesPerPacket && 1+i < int(msg.DataLength); i++ {
		if offset+i >= int(s.totalSize) {
			break
		}
		s.buf[offset+i] = msg.Data[1+i]
	}

	s.receivedCount++
	s.lastPacketMs = msg.TimestampMs

	if s.receivedCount >= s.totalPackets {
		s.state = tpComplete
		r.CompletedMessages++
		return true
	}
	return false
}

// GetData забирает собранное сообщение источника и освобождает сессию.
// Второй вызов для того же источника вернёт false: данные выдаются один раз.
func (r *Reassembler) GetData(sourceAddress uint8) (targetPGN uint32, data []byte, ok bool) {
	s := r.session(sourceAddress)
	if s == nil || s.state != tpComplete {
		return 0, nil, false
	}

	out := make([]byte, s.totalSize)
	copy(out, s.buf[:s.totalSize])
	pgn := s.targetPGN

	s.state = tpIdle
	return pgn, out, true
}

// Expire возвращает в Idle сессии, застрявшие в Error, и приёмные сессии,
// не получавшие пакетов дольше таймаута. Без этой уборки источник, ушедший
// с шины посреди передачи, навсегда занимал бы слот пула. Вызывается
// периодически из цикла приёма; возвращает число освобождённых слотов.
func (r *Reassembler) Expire(nowMs int64) int {
	n := 0
	for i := range r.sessions {
		s := &r.sessions[i]
		switch s.state {
		case tpError:
			s.state = tpIdle
			n++
		case tpReceiving:
			if nowMs-s.lastPacketMs > TPTimeoutMs {
				s.state = tpIdle
				n++
			}
		}
	}
	r.ExpiredSessions += uint32(n)
	return n
}

// ActiveSessions возвращает число занятых слотов пула.
func (r *Reassembler) ActiveSessions() int {
	n := 0
	for i := range r.sessions {
		if r.sessions[i].state != tpIdle {
			n++
		}
	}
	return n
}
