package datamgr

import (
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestUpdateAndGet(t *testing.T) {
	m := New()

	_, ok := m.Get(ParamEngineSpeed)
	test.That(t, ok, test.ShouldBeFalse)

	m.Update(ParamEngineSpeed, 800, SourceJ1939, 1000)

	v, ok := m.Get(ParamEngineSpeed)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 800.0)

	v, ts, src, ok := m.GetWithTimestamp(ParamEngineSpeed)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 800.0)
	test.That(t, ts, test.ShouldEqual, int64(1000))
	test.That(t, src, test.ShouldEqual, SourceJ1939)
}

func TestUpdateIgnoresBadID(t *testing.T) {
	m := New()
	m.Update(ParamNone, 1, SourceJ1939, 0)
	m.Update(ParamMax, 1, SourceJ1939, 0)
	m.Update(ParamMax+10, 1, SourceJ1939, 0)

	valid, total := m.Stats()
	test.That(t, valid, test.ShouldEqual, 0)
	test.That(t, total, test.ShouldEqual, uint64(0))
}

func TestFreshnessAndAge(t *testing.T) {
	m := New()
	m.Update(ParamCoolantTemp, 90, SourceJ1939, 1000)

	test.That(t, m.IsFresh(ParamCoolantTemp, 3000, 5000), test.ShouldBeTrue)
	test.That(t, m.IsFresh(ParamCoolantTemp, 7000, 5000), test.ShouldBeFalse)
	test.That(t, m.Age(ParamCoolantTemp, 3000), test.ShouldEqual, int64(2000))

	test.That(t, m.Age(ParamOilTemp, 3000), test.ShouldEqual, AgeInvalid)
	test.That(t, m.IsFresh(ParamOilTemp, 3000, 5000), test.ShouldBeFalse)
}

func TestInvalidate(t *testing.T) {
	m := New()
	m.Update(ParamFuelLevel1, 50, SourceJ1708, 1000)
	m.Invalidate(ParamFuelLevel1)

	_, ok := m.Get(ParamFuelLevel1)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, m.Age(ParamFuelLevel1, 2000), test.ShouldEqual, AgeInvalid)

	// Новое обновление возвращает параметр к жизни
	m.Update(ParamFuelLevel1, 49, SourceJ1708, 2000)
	v, ok := m.Get(ParamFuelLevel1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 49.0)
}

func TestCallbackThreshold(t *testing.T) {
	m := New()

	type event struct {
		id       ParamID
		newValue float64
		oldValue float64
	}
	var events []event
	ok := m.RegisterCallback(func(id ParamID, newValue, oldValue float64) {
		events = append(events, event{id, newValue, oldValue})
	})
	test.That(t, ok, test.ShouldBeTrue)

	// Первое валидное значение всегда уведомляет
	m.Update(ParamVehicleSpeed, 80.0, SourceJ1939, 1000)
	test.That(t, len(events), test.ShouldEqual, 1)

	// Изменение меньше порога 0.001 — без уведомления
	m.Update(ParamVehicleSpeed, 80.0005, SourceJ1939, 1100)
	test.That(t, len(events), test.ShouldEqual, 1)

	// Изменение больше порога: old — значение второго обновления
	m.Update(ParamVehicleSpeed, 80.1, SourceJ1939, 1200)
	test.That(t, len(events), test.ShouldEqual, 2)
	test.That(t, events[1].newValue, test.ShouldEqual, 80.1)
	test.That(t, events[1].oldValue, test.ShouldEqual, 80.0005)
}

func TestCallbackLimit(t *testing.T) {
	m := New()
	for i := 0; i < MaxCallbacks; i++ {
		test.That(t, m.RegisterCallback(func(ParamID, float64, float64) {}), test.ShouldBeTrue)
	}
	test.That(t, m.RegisterCallback(func(ParamID, float64, float64) {}), test.ShouldBeFalse)
	test.That(t, m.RegisterCallback(nil), test.ShouldBeFalse)
}

func TestStatsAndSnapshot(t *testing.T) {
	m := New()
	m.Update(ParamEngineSpeed, 800, SourceJ1939, 1000)
	m.Update(ParamEngineSpeed, 850, SourceJ1939, 1100)
	m.Update(ParamCoolantTemp, 90, SourceJ1939, 1000)

	valid, total := m.Stats()
	test.That(t, valid, test.ShouldEqual, 2)
	test.That(t, total, test.ShouldEqual, uint64(3))

	snap := m.Snapshot()
	test.That(t, len(snap), test.ShouldEqual, 2)
	test.That(t, snap[ParamEngineSpeed].Value, test.ShouldEqual, 850.0)
	test.That(t, snap[ParamEngineSpeed].PrevValue, test.ShouldEqual, 800.0)
	test.That(t, snap[ParamEngineSpeed].UpdateCount, test.ShouldEqual, uint32(2))
}

func TestConcurrentUpdates(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				m.Update(ParamEngineSpeed, float64(i), SourceJ1939, int64(i))
				m.Get(ParamEngineSpeed)
			}
		}(g)
	}
	wg.Wait()

	_, total := m.Stats()
	test.That(t, total, test.ShouldEqual, uint64(4000))
}

func TestParamNames(t *testing.T) {
	test.That(t, ParamName(ParamEngineSpeed), test.ShouldEqual, "Engine Speed")
	test.That(t, ParamUnit(ParamEngineSpeed), test.ShouldEqual, "rpm")
	test.That(t, ParamName(ParamID(77)), test.ShouldEqual, "Unknown")
	test.That(t, ParamUnit(ParamID(77)), test.ShouldEqual, "")
	test.That(t, SourceJ1708.String(), test.ShouldEqual, "j1708")
	test.That(t, Source(99).String(), test.ShouldEqual, "unknown")
}
