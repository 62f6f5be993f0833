package j1587

// InterByteTimeoutMs — промежуток между байтами, означающий границу
// сообщения. Физический предел J1708 — 2 битовых интервала на 9600 бод
// (~2 мс), здесь взят запас.
const InterByteTimeoutMs = 10

type rxState uint8

const (
	rxIdle rxState = iota
	rxReceiving
	rxComplete
)

// Receiver — приёмный автомат J1708: байты с метками времени на входе,
// готовые сообщения на выходе. Владелец — единственная горутина чтения
// порта, внутренней блокировки нет.
type Receiver struct {
	state      rxState
	buf        [MaxMessageLength]byte
	bufIndex   uint8
	lastByteMs int64

	// Счётчики для диагностики.
	MessagesReceived uint32
	ChecksumErrors   uint32
	ParseErrors      uint32
}

// NewReceiver создаёт приёмник в исходном состоянии.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// Feed подаёт очередной байт шины. true — в приёмнике лежит готовое
// сообщение, его нужно забрать через GetMessage; пока оно не забрано,
// новые байты не накапливаются.
func (r *Receiver) Feed(b byte, timestampMs int64) bool {
	if r.state == rxReceiving {
		if timestampMs-r.lastByteMs > InterByteTimeoutMs {
			// Пауза на шине — граница сообщения
			if r.bufIndex >= MinMessageLength {
				if ValidateChecksum(r.buf[:r.bufIndex]) {
					r.state = rxComplete
					r.MessagesReceived++
					// Байт не потребляется, сначала заберите сообщение
					return true
				}
				r.ChecksumErrors++
			}
			r.state = rxIdle
			r.bufIndex = 0
		}
	}

	if r.state == rxComplete {
		return true
	}

	if r.bufIndex < MaxMessageLength {
		r.buf[r.bufIndex] = b
		r.bufIndex++
		r.lastByteMs = timestampMs
		r.state = rxReceiving
	} else {
		// Переполнение буфера — сброс
		r.state = rxIdle
		r.bufIndex = 0
		r.ParseErrors++
	}

	return false
}

// GetMessage разбирает накопленное сообщение и освобождает приёмник.
// false — готового сообщения нет или разбор не удался.
func (r *Receiver) GetMessage() (Message, bool) {
	if r.state != rxComplete {
		return Message{}, false
	}

	msg, ok := ParseMessage(r.buf[:r.bufIndex])

	r.state = rxIdle
	r.bufIndex = 0

	return msg, ok
}
