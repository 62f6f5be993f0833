package j1939

import (
	"testing"

	"go.viam.com/test"
)

func bamCM(sa uint8, totalSize uint16, totalPackets uint8, pgn uint32, ts int64) Message {
	msg, _ := ParseFrame(BuildCANID(PGNTPCM, sa, 7), []byte{
		TPControlBAM,
		byte(totalSize), byte(totalSize >> 8),
		totalPackets,
		0xFF,
		byte(pgn), byte(pgn >> 8), byte(pgn >> 16),
	}, ts)
	return msg
}

func bamDT(sa uint8, seq uint8, payload []byte, ts int64) Message {
	data := make([]byte, 8)
	data[0] = seq
	copy(data[1:], payload)
	msg, _ := ParseFrame(BuildCANID(PGNTPDT, sa, 7), data, ts)
	return msg
}

func TestTPReassemblyEndToEnd(t *testing.T) {
	r := NewReassembler()

	test.That(t, r.HandleCM(bamCM(0x00, 20, 3, PGNDM1, 0)), test.ShouldBeTrue)

	want := make([]byte, 0, 21)
	for i := 0; i < 21; i++ {
		want = append(want, byte(i+1))
	}

	test.That(t, r.HandleDT(bamDT(0x00, 1, want[0:7], 100)), test.ShouldBeFalse)
	test.That(t, r.HandleDT(bamDT(0x00, 2, want[7:14], 200)), test.ShouldBeFalse)
	test.That(t, r.HandleDT(bamDT(0x00, 3, want[14:21], 300)), test.ShouldBeTrue)

	pgn, data, ok := r.GetData(0x00)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pgn, test.ShouldEqual, PGNDM1)
	// Буфер обрезан по заявленному размеру, 21-й байт не попадает
	test.That(t, data, test.ShouldResemble, want[:20])

	// Данные выдаются один раз, сессия вернулась в Idle
	_, _, ok = r.GetData(0x00)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, r.ActiveSessions(), test.ShouldEqual, 0)
	test.That(t, r.CompletedMessages, test.ShouldEqual, uint32(1))
}

func TestTPOutOfOrder(t *testing.T) {
	r := NewReassembler()
	r.HandleCM(bamCM(0x00, 20, 3, PGNDM1, 0))

	test.That(t, r.HandleDT(bamDT(0x00, 1, []byte{1, 2, 3, 4, 5, 6, 7}, 100)), test.ShouldBeFalse)
	// Пропуск пакета — жёсткий отказ, сессия уходит в Error
	test.That(t, r.HandleDT(bamDT(0x00, 3, []byte{1, 2, 3, 4, 5, 6, 7}, 200)), test.ShouldBeFalse)
	test.That(t, r.SequenceErrors, test.ShouldEqual, uint32(1))

	_, _, ok := r.GetData(0x00)
	test.That(t, ok, test.ShouldBeFalse)

	// Следующие пакеты ошибочной сессии игнорируются
	test.That(t, r.HandleDT(bamDT(0x00, 2, []byte{1, 2, 3, 4, 5, 6, 7}, 300)), test.ShouldBeFalse)
}

func TestTPTimeout(t *testing.T) {
	r := NewReassembler()
	r.HandleCM(bamCM(0x00, 14, 2, PGNDM1, 0))

	r.HandleDT(bamDT(0x00, 1, []byte{1, 2, 3, 4, 5, 6, 7}, 100))
	// Промежуток больше 750 мс — сессия в Error
	test.That(t, r.HandleDT(bamDT(0x00, 2, []byte{1, 2, 3, 4, 5, 6, 7}, 1000)), test.ShouldBeFalse)
	test.That(t, r.TimeoutErrors, test.ShouldEqual, uint32(1))

	_, _, ok := r.GetData(0x00)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestTPPoolExhaustion(t *testing.T) {
	r := NewReassembler()

	for sa := uint8(0); sa < tpSessionCount; sa++ {
		test.That(t, r.HandleCM(bamCM(sa, 14, 2, PGNDM1, 0)), test.ShouldBeTrue)
	}
	// Пятый источник молча отбрасывается, это не фатальная ошибка
	test.That(t, r.HandleCM(bamCM(0x10, 14, 2, PGNDM1, 0)), test.ShouldBeFalse)
	test.That(t, r.DroppedBAMs, test.ShouldEqual, uint32(1))

	// Повторный BAM уже известного источника сессию не плодит
	test.That(t, r.HandleCM(bamCM(0x00, 14, 2, PGNDM1, 10)), test.ShouldBeTrue)
	test.That(t, r.ActiveSessions(), test.ShouldEqual, tpSessionCount)
}

func TestTPErrorReclaim(t *testing.T) {
	r := NewReassembler()
	r.HandleCM(bamCM(0x00, 14, 2, PGNDM1, 0))
	r.HandleDT(bamDT(0x00, 2, []byte{1, 2, 3, 4, 5, 6, 7}, 50)) // не с первого пакета

	test.That(t, r.ActiveSessions(), test.ShouldEqual, 1)

	// Свежий BAM того же источника перезапускает ошибочную сессию
	test.That(t, r.HandleCM(bamCM(0x00, 14, 2, PGNDM1, 100)), test.ShouldBeTrue)
	r.HandleDT(bamDT(0x00, 1, []byte{1, 2, 3, 4, 5, 6, 7}, 150))
	test.That(t, r.HandleDT(bamDT(0x00, 2, []byte{8, 9, 10, 11, 12, 13, 14}, 200)), test.ShouldBeTrue)

	_, data, ok := r.GetData(0x00)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(data), test.ShouldEqual, 14)
}

func TestTPExpireSweep(t *testing.T) {
	r := NewReassembler()

	// Ошибочная сессия
	r.HandleCM(bamCM(0x00, 14, 2, PGNDM1, 0))
	r.HandleDT(bamDT(0x00, 2, []byte{1, 2, 3, 4, 5, 6, 7}, 50))

	// Источник замолчал посреди передачи
	r.HandleCM(bamCM(0x01, 14, 2, PGNDM1, 0))
	r.HandleDT(bamDT(0x01, 1, []byte{1, 2, 3, 4, 5, 6, 7}, 100))

	// Живая сессия уборке не подлежит
	r.HandleCM(bamCM(0x02, 14, 2, PGNDM1, 900))

	test.That(t, r.Expire(1000), test.ShouldEqual, 2)
	test.That(t, r.ExpiredSessions, test.ShouldEqual, uint32(2))
	test.That(t, r.ActiveSessions(), test.ShouldEqual, 1)
}

func TestTPRejectsNonBAM(t *testing.T) {
	r := NewReassembler()

	msg, _ := ParseFrame(BuildCANID(PGNTPCM, 0, 7), []byte{TPControlRTS, 20, 0, 3, 0xFF, 0xCA, 0xFE, 0x00}, 0)
	test.That(t, r.HandleCM(msg), test.ShouldBeFalse)

	// Нулевой и завышенный размеры отбрасываются
	test.That(t, r.HandleCM(bamCM(0, 0, 3, PGNDM1, 0)), test.ShouldBeFalse)
	test.That(t, r.HandleCM(bamCM(0, TPMaxMessageSize+1, 255, PGNDM1, 0)), test.ShouldBeFalse)
}
