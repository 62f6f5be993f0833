package j1587

import (
	"testing"

	"go.viam.com/test"
)

// feed подаёт байты с шагом 1 мс начиная с startMs.
func feed(r *Receiver, data []byte, startMs int64) bool {
	ready := false
	for i, b := range data {
		ready = r.Feed(b, startMs+int64(i))
	}
	return ready
}

func TestReceiverCompleteOnGap(t *testing.T) {
	r := NewReceiver()
	raw := BuildMessage(128, []byte{110, 212})

	test.That(t, feed(r, raw, 0), test.ShouldBeFalse)

	// Сообщение закрывается паузой: первый байт следующего приходит
	// после промежутка больше таймаута
	test.That(t, r.Feed(0x80, 100), test.ShouldBeTrue)
	test.That(t, r.MessagesReceived, test.ShouldEqual, uint32(1))

	msg, ok := r.GetMessage()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, msg.MID, test.ShouldEqual, uint8(128))
	test.That(t, msg.Params[0].Data[0], test.ShouldEqual, uint8(212))
}

func TestReceiverHoldsOffWhileComplete(t *testing.T) {
	r := NewReceiver()
	feed(r, BuildMessage(128, []byte{110, 212}), 0)
	r.Feed(0x99, 100)

	// Пока готовое сообщение не забрано, новые байты не накапливаются
	test.That(t, r.Feed(0x55, 101), test.ShouldBeTrue)
	test.That(t, r.Feed(0x56, 102), test.ShouldBeTrue)

	msg, ok := r.GetMessage()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, msg.MID, test.ShouldEqual, uint8(128))

	// Приёмник свободен, байты копятся заново
	test.That(t, r.Feed(0x80, 103), test.ShouldBeFalse)
}

func TestReceiverChecksumError(t *testing.T) {
	r := NewReceiver()
	raw := BuildMessage(128, []byte{110, 212})
	raw[2] ^= 0x01

	feed(r, raw, 0)
	// Пауза: буфер отбрасывается, ошибка посчитана
	test.That(t, r.Feed(0x80, 100), test.ShouldBeFalse)
	test.That(t, r.ChecksumErrors, test.ShouldEqual, uint32(1))
	test.That(t, r.MessagesReceived, test.ShouldEqual, uint32(0))
}

func TestReceiverShortFragmentDiscarded(t *testing.T) {
	r := NewReceiver()
	r.Feed(0x80, 0)

	// Одинокий байт короче минимума — тихо отбрасывается на паузе
	test.That(t, r.Feed(0x81, 100), test.ShouldBeFalse)
	test.That(t, r.ChecksumErrors, test.ShouldEqual, uint32(0))

	_, ok := r.GetMessage()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestReceiverOverflow(t *testing.T) {
	r := NewReceiver()
	for i := 0; i < MaxMessageLength; i++ {
		r.Feed(0xAA, int64(i))
	}
	test.That(t, r.ParseErrors, test.ShouldEqual, uint32(0))

	// 22-й байт без паузы переполняет буфер
	test.That(t, r.Feed(0xAA, int64(MaxMessageLength)), test.ShouldBeFalse)
	test.That(t, r.ParseErrors, test.ShouldEqual, uint32(1))
}

func TestFaultCodes(t *testing.T) {
	// Запись PID: идентификатор 100, FMI 3; запись SID: 0x85 -> SID 5
	faults := ParseFaultCodes(128, []byte{100, 0x03, 0x85, 0x1F}, true)
	test.That(t, len(faults), test.ShouldEqual, 2)

	test.That(t, faults[0].IsSID, test.ShouldBeFalse)
	test.That(t, faults[0].PIDOrSID, test.ShouldEqual, uint8(100))
	test.That(t, faults[0].FMI, test.ShouldEqual, uint8(3))
	test.That(t, faults[0].Active, test.ShouldBeTrue)

	test.That(t, faults[1].IsSID, test.ShouldBeTrue)
	test.That(t, faults[1].PIDOrSID, test.ShouldEqual, uint8(5))
	// FMI — младший полубайт
	test.That(t, faults[1].FMI, test.ShouldEqual, uint8(0x0F))

	test.That(t, ParseFaultCodes(128, []byte{100}, true), test.ShouldBeNil)
}

func TestDecoders(t *testing.T) {
	// 50 * 0.5 mph * 1.60934 = 40.2335 км/ч
	v, ok := DecodeRoadSpeed([]byte{50})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldAlmostEqual, 40.2335, 0.001)

	// 212 °F = 100 °C
	v, ok = DecodeCoolantTemp([]byte{212})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldAlmostEqual, 100.0, 0.001)

	v, ok = DecodeOilPressure([]byte{75})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 300.0)

	// (1412 * 0.25) - 273 = 80 °C
	v, ok = DecodeTransOilTemp([]byte{0x84, 0x05})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 80.0)

	v, ok = DecodeBatteryVoltage([]byte{255})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 12.75)

	v, ok = DecodeFuelLevel([]byte{150})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 75.0)

	_, ok = DecodeEngineRPM([]byte{0x00})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestNames(t *testing.T) {
	test.That(t, MIDName(128), test.ShouldEqual, "Двигатель #1")
	test.That(t, MIDName(7), test.ShouldEqual, "Неизвестный модуль")
	test.That(t, PIDName(84), test.ShouldEqual, "Road Speed")
	test.That(t, PIDName(99), test.ShouldEqual, "Unknown")

	desc := DescribeFault(FaultCode{MID: 128, PIDOrSID: 100, FMI: 3})
	test.That(t, desc, test.ShouldContainSubstring, "Двигатель #1")
	test.That(t, desc, test.ShouldContainSubstring, "Параметр ID: 100")
}
