package j1939

import (
	"testing"

	"go.viam.com/test"
)

func TestDecodeEngineSpeed(t *testing.T) {
	// 0x1900 = 6400, 6400 * 0.125 = 800 об/мин
	v, ok := DecodeEngineSpeed([]byte{0, 0, 0, 0x00, 0x19, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 800.0)

	// 0xFFFF — "данные недоступны", а не гигантские обороты
	_, ok = DecodeEngineSpeed([]byte{0, 0, 0, 0xFF, 0xFF, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)

	// 0xFE00 и выше — индикатор ошибки
	_, ok = DecodeEngineSpeed([]byte{0, 0, 0, 0x00, 0xFE, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = DecodeEngineSpeed([]byte{0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDecodeCoolantTemp(t *testing.T) {
	v, ok := DecodeCoolantTemp([]byte{130, 0, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 90.0)

	_, ok = DecodeCoolantTemp([]byte{0xFF, 0, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = DecodeCoolantTemp([]byte{0xFE, 0, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDecodeVehicleSpeed(t *testing.T) {
	// 0x5000 = 20480, 20480/256 = 80 км/ч
	v, ok := DecodeVehicleSpeed([]byte{0, 0x00, 0x50, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 80.0)
}

func TestDecodeCurrentGear(t *testing.T) {
	// 125 — нейтраль, значения ниже — задние передачи
	g, ok := DecodeCurrentGear([]byte{0, 0, 0, 125, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, g, test.ShouldEqual, int8(0))

	g, ok = DecodeCurrentGear([]byte{0, 0, 0, 128, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, g, test.ShouldEqual, int8(3))

	g, ok = DecodeCurrentGear([]byte{0, 0, 0, 124, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, g, test.ShouldEqual, int8(-1))

	_, ok = DecodeCurrentGear([]byte{0, 0, 0, 0xFF, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDecodeTransOilTemp(t *testing.T) {
	// (80 + 273) / 0.03125 = 11296 = 0x2C20
	v, ok := DecodeTransOilTemp([]byte{0, 0, 0, 0, 0x20, 0x2C, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 80.0)
}

func TestDecodeEngineHours(t *testing.T) {
	// 24690 * 0.05 = 1234.5 ч
	v, ok := DecodeEngineHours([]byte{0x72, 0x60, 0x00, 0x00, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 1234.5)

	_, ok = DecodeEngineHours([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDecodeBatteryVoltage(t *testing.T) {
	// 565 * 0.05 = 28.25 В
	v, ok := DecodeBatteryVoltage([]byte{0, 0, 0, 0, 0, 0, 0x35, 0x02})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 28.25)
}

func TestDecodeOilAndBoost(t *testing.T) {
	v, ok := DecodeOilPressure([]byte{0, 0, 0, 100, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 400.0)

	v, ok = DecodeBoostPressure([]byte{0, 75, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 150.0)
}

func TestDecodeFuelLevelAndRate(t *testing.T) {
	v, ok := DecodeFuelLevel([]byte{0, 125, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 50.0)

	// 250 * 0.05 = 12.5 л/ч
	v, ok = DecodeFuelRate([]byte{0xFA, 0x00, 0, 0, 0, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 12.5)
}

func TestDecodeAmbientTemp(t *testing.T) {
	// (20 + 273) / 0.03125 = 9376 = 0x24A0
	v, ok := DecodeAmbientTemp([]byte{0, 0, 0, 0xA0, 0x24, 0, 0, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 20.0)
}

func TestLookupSPN(t *testing.T) {
	desc, ok := LookupSPN(PGNEEC1, 190)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, desc.Name, test.ShouldEqual, "Engine Speed")
	test.That(t, desc.Scale, test.ShouldEqual, 0.125)

	_, ok = LookupSPN(PGNEEC1, 9999)
	test.That(t, ok, test.ShouldBeFalse)

	descs := CatalogForPGN(PGNCCVS)
	test.That(t, len(descs), test.ShouldEqual, 2)
}

func TestDecodeSPNGeneric(t *testing.T) {
	desc, ok := LookupSPN(PGNEEC1, 190)
	test.That(t, ok, test.ShouldBeTrue)

	msg, ok := ParseFrame(BuildCANID(PGNEEC1, 0, 3), []byte{0, 0, 0, 0x00, 0x19, 0, 0, 0}, 0)
	test.That(t, ok, test.ShouldBeTrue)

	// Обобщённый декодер согласован со специализированным
	v, ok := DecodeSPN(msg, desc)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 800.0)

	vd, ok := DecodeEngineSpeed(msg.Data[:])
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, vd)

	// Недоступные данные — через ту же проверку
	msg.Data[3], msg.Data[4] = 0xFF, 0xFF
	_, ok = DecodeSPN(msg, desc)
	test.That(t, ok, test.ShouldBeFalse)

	// Дескриптор чужого PGN не применяется
	other, _ := LookupSPN(PGNET1, 110)
	_, ok = DecodeSPN(msg, other)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDecodeSPNOffsetTorque(t *testing.T) {
	desc, ok := LookupSPN(PGNEEC1, 513)
	test.That(t, ok, test.ShouldBeTrue)

	msg, _ := ParseFrame(BuildCANID(PGNEEC1, 0, 3), []byte{0, 0, 150, 0, 0, 0, 0, 0}, 0)
	v, ok := DecodeSPN(msg, desc)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 25.0)
}
