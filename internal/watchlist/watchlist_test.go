package watchlist

import (
	"testing"

	"go.viam.com/test"

	"github.com/serebryakov7/truck-dash/internal/datamgr"
)

func TestAddRemove(t *testing.T) {
	l := New(datamgr.New())

	test.That(t, l.Add(datamgr.ParamEngineSpeed, WidgetGaugeCircular, 0, 0), test.ShouldBeTrue)
	// Повторное добавление того же параметра отклоняется
	test.That(t, l.Add(datamgr.ParamEngineSpeed, WidgetNumeric, 1, 0), test.ShouldBeFalse)
	// Страница вне диапазона
	test.That(t, l.Add(datamgr.ParamCoolantTemp, WidgetNumeric, MaxPages, 0), test.ShouldBeFalse)

	test.That(t, l.Remove(datamgr.ParamEngineSpeed), test.ShouldBeTrue)
	test.That(t, l.Remove(datamgr.ParamEngineSpeed), test.ShouldBeFalse)
}

func TestAddLimit(t *testing.T) {
	l := New(datamgr.New())
	for i := 0; i < MaxItems; i++ {
		test.That(t, l.Add(datamgr.ParamID(i+1), WidgetNumeric, 0, uint8(i)), test.ShouldBeTrue)
	}
	test.That(t, l.Add(datamgr.ParamID(100), WidgetNumeric, 0, 0), test.ShouldBeFalse)
}

func TestAlertLevels(t *testing.T) {
	dm := datamgr.New()
	l := New(dm)
	l.Add(datamgr.ParamCoolantTemp, WidgetGaugeLinear, 0, 0)
	l.SetThresholds(datamgr.ParamCoolantTemp, 70, 100, 50, 110)

	// Нет данных — нет тревоги
	l.Update()
	test.That(t, l.HighestAlert(), test.ShouldEqual, AlertNone)

	dm.Update(datamgr.ParamCoolantTemp, 90, datamgr.SourceJ1939, 0)
	l.Update()
	test.That(t, l.HighestAlert(), test.ShouldEqual, AlertNone)

	dm.Update(datamgr.ParamCoolantTemp, 105, datamgr.SourceJ1939, 0)
	l.Update()
	test.That(t, l.HighestAlert(), test.ShouldEqual, AlertWarning)

	// Критический порог проверяется раньше предупреждающего
	dm.Update(datamgr.ParamCoolantTemp, 115, datamgr.SourceJ1939, 0)
	l.Update()
	test.That(t, l.HighestAlert(), test.ShouldEqual, AlertCritical)
	test.That(t, l.AlertCount(AlertWarning), test.ShouldEqual, 1)

	// Низкая сторона: ниже критического минимума
	dm.Update(datamgr.ParamCoolantTemp, 45, datamgr.SourceJ1939, 0)
	l.Update()
	test.That(t, l.HighestAlert(), test.ShouldEqual, AlertCritical)

	item := l.Item(datamgr.ParamCoolantTemp)
	v, alert, ok := l.Value(item)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 45.0)
	test.That(t, alert, test.ShouldEqual, AlertCritical)
}

func TestPages(t *testing.T) {
	l := New(datamgr.New())
	l.Add(datamgr.ParamEngineSpeed, WidgetGaugeCircular, 0, 0)
	l.Add(datamgr.ParamVehicleSpeed, WidgetGaugeCircular, 1, 0)
	l.Add(datamgr.ParamFuelLevel1, WidgetGaugeLinear, 1, 1)

	test.That(t, len(l.PageItems(0)), test.ShouldEqual, 1)
	test.That(t, len(l.PageItems(1)), test.ShouldEqual, 2)
	test.That(t, len(l.PageItems(3)), test.ShouldEqual, 0)

	test.That(t, l.Page(), test.ShouldEqual, uint8(0))
	test.That(t, l.NextPage(), test.ShouldEqual, uint8(1))
	l.SetPage(3)
	test.That(t, l.NextPage(), test.ShouldEqual, uint8(0))
	l.SetPage(99)
	test.That(t, l.Page(), test.ShouldEqual, uint8(0))
}

func TestLabels(t *testing.T) {
	l := New(datamgr.New())
	l.Add(datamgr.ParamEngineSpeed, WidgetGaugeCircular, 0, 0)

	item := l.Item(datamgr.ParamEngineSpeed)
	test.That(t, l.Label(item), test.ShouldEqual, "Engine Speed")
	test.That(t, l.Unit(item), test.ShouldEqual, "rpm")

	l.SetCustomLabel(datamgr.ParamEngineSpeed, "ОБОРОТЫ", "об/мин")
	test.That(t, l.Label(item), test.ShouldEqual, "ОБОРОТЫ")
	test.That(t, l.Unit(item), test.ShouldEqual, "об/мин")
}

func TestSetupDefaults(t *testing.T) {
	l := New(datamgr.New())
	l.SetupDefaults()

	test.That(t, len(l.PageItems(0)), test.ShouldEqual, 4)
	test.That(t, len(l.PageItems(1)), test.ShouldEqual, 4)
	test.That(t, len(l.PageItems(2)), test.ShouldEqual, 3)
	test.That(t, len(l.PageItems(3)), test.ShouldEqual, 3)

	rpm := l.Item(datamgr.ParamEngineSpeed)
	test.That(t, rpm, test.ShouldNotBeNil)
	test.That(t, rpm.GaugeMax, test.ShouldEqual, 3000.0)
	test.That(t, rpm.CritHigh, test.ShouldEqual, 2500.0)

	gear := l.Item(datamgr.ParamCurrentGear)
	test.That(t, gear.DecimalPlaces, test.ShouldEqual, uint8(0))
}
