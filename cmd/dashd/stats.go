package main

import (
	"context"
	"log"
	"time"

	"github.com/serebryakov7/truck-dash/common"
	"github.com/serebryakov7/truck-dash/internal/datamgr"
	"github.com/serebryakov7/truck-dash/internal/j1939"
	"github.com/serebryakov7/truck-dash/internal/watchlist"
	"github.com/serebryakov7/truck-dash/pkg/mqtt"
	"github.com/serebryakov7/truck-dash/pkg/storage"
	"github.com/serebryakov7/truck-dash/pkg/ws"
)

// freshnessMs — возраст, после которого значение не участвует в накоплении.
const freshnessMs = 2000

// buildSnapshot собирает снимок таблицы параметров для публикации.
func buildSnapshot(dm *datamgr.Manager) *common.Snapshot {
	snap := dm.Snapshot()
	if len(snap) == 0 {
		return nil
	}

	nowMs := time.Now().UnixMilli()
	params := make(map[string]common.ParamValue, len(snap))
	for id, p := range snap {
		params[datamgr.ParamName(id)] = common.ParamValue{
			Value:  p.Value,
			Unit:   datamgr.ParamUnit(id),
			Source: p.Source.String(),
			AgeMs:  nowMs - p.TimestampMs,
		}
	}
	return &common.Snapshot{
		Timestamp: time.Now().UnixNano(),
		Params:    params,
	}
}

// dedupSPN строит ключ дедупликации: для J1939 это сам SPN, для J1587 —
// составной из MID и PID/SID, чтобы коды двух шин не склеивались.
func dedupSPN(code common.DTCCode) uint32 {
	if code.SPN > 0 {
		return uint32(code.SPN)
	}
	return 0x100000 | uint32(code.MID)<<8 | uint32(code.PID)
}

// runDTCs дедуплицирует коды неисправностей, ведёт историю и публикует
// новые коды в MQTT и websocket.
func runDTCs(ctx context.Context, store *storage.Store, mqttClient *mqtt.Client, hub *ws.Hub, dtcChan <-chan common.DTCCode) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code := <-dtcChan:
			key := dedupSPN(code)

			if err := store.RecordDTC(key, uint8(code.FMI), time.Now().Unix()); err != nil {
				log.Printf("Ошибка записи DTC в историю: %v", err)
			}

			isNew, err := store.IsNewDTC(key, uint8(code.FMI))
			if err != nil {
				log.Printf("Ошибка проверки DTC (SPN: %d, FMI: %d) в хранилище: %v", code.SPN, code.FMI, err)
				continue
			}
			if !isNew {
				continue
			}

			if code.SPN > 0 {
				dtc := j1939.DTC{SPN: uint32(code.SPN), FMI: uint8(code.FMI), OC: uint8(code.OC)}
				log.Printf("Новый DTC: %s", j1939.DescribeDTC(uint8(code.MID), dtc))
			} else {
				log.Printf("Новый DTC J1587: MID %d, PID/SID %d, FMI %d", code.MID, code.PID, code.FMI)
			}
			mqttClient.PublishDTC(code)
			hub.Broadcast(code)
		}
	}
}

// runWatchList периодически пересчитывает уровни тревоги и логирует переходы.
func runWatchList(ctx context.Context, wl *watchlist.List) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := watchlist.AlertNone
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			wl.Update()
			highest := wl.HighestAlert()
			if highest != last {
				log.Printf("Уровень тревоги изменился: %s -> %s (%d параметров в тревоге)",
					last, highest, wl.AlertCount(watchlist.AlertWarning))
				last = highest
			}
		}
	}
}

// tripStats ведёт счётчики поездок и статистику за срок службы.
type tripStats struct {
	store    *storage.Store
	dm       *datamgr.Manager
	tripA    storage.TripData
	tripB    storage.TripData
	lifetime storage.LifetimeStats
	dirty    bool
}

func newTripStats(store *storage.Store, dm *datamgr.Manager) (*tripStats, error) {
	s := &tripStats{store: store, dm: dm}

	var err error
	if s.tripA, _, err = store.LoadTrip("a"); err != nil {
		return nil, err
	}
	if s.tripB, _, err = store.LoadTrip("b"); err != nil {
		return nil, err
	}
	if s.lifetime, _, err = store.LoadLifetime(); err != nil {
		return nil, err
	}
	if s.tripA.StartTime == 0 {
		s.tripA.StartTime = time.Now().Unix()
	}
	if s.tripB.StartTime == 0 {
		s.tripB.StartTime = time.Now().Unix()
	}
	return s, nil
}

// accumulate прибавляет пройденный путь и топливо за тик длиной deltaS.
func (s *tripStats) accumulate(deltaS float64) {
	nowMs := time.Now().UnixMilli()

	if s.dm.IsFresh(datamgr.ParamVehicleSpeed, nowMs, freshnessMs) {
		if speed, ok := s.dm.Get(datamgr.ParamVehicleSpeed); ok && speed > 0 {
			dist := speed * deltaS / 3600
			s.tripA.DistanceKm += dist
			s.tripB.DistanceKm += dist
			s.lifetime.OdometerKm += dist
			s.dirty = true
		}
	}

	if s.dm.IsFresh(datamgr.ParamFuelRate, nowMs, freshnessMs) {
		if rate, ok := s.dm.Get(datamgr.ParamFuelRate); ok && rate > 0 {
			fuel := rate * deltaS / 3600
			s.tripA.FuelL += fuel
			s.tripB.FuelL += fuel
			s.lifetime.TotalFuelL += fuel
			s.dirty = true
		}
	}

	// Двигатель работает — идёт время поездки
	if s.dm.IsFresh(datamgr.ParamEngineSpeed, nowMs, freshnessMs) {
		if rpm, ok := s.dm.Get(datamgr.ParamEngineSpeed); ok && rpm > 0 {
			s.tripA.DurationS += int64(deltaS)
			s.tripB.DurationS += int64(deltaS)
			s.dirty = true
		}
	}

	// Наработка приходит готовой с шины
	if s.dm.IsFresh(datamgr.ParamEngineHours, nowMs, freshnessMs) {
		if hours, ok := s.dm.Get(datamgr.ParamEngineHours); ok && hours > s.lifetime.EngineHours {
			s.lifetime.EngineHours = hours
			s.dirty = true
		}
	}

	s.dm.Update(datamgr.ParamTotalDistance, s.lifetime.OdometerKm, datamgr.SourceStored, nowMs)
}

// save сбрасывает накопленное в базу, если были изменения.
func (s *tripStats) save() {
	if !s.dirty {
		return
	}

	// Рекорды экономичности обновляются по счётчику A с заметным пробегом
	if s.tripA.DistanceKm > 1 && s.tripA.FuelL > 0 {
		eco := s.tripA.EconomyKmL()
		if s.lifetime.BestEconomyKmL == 0 || eco > s.lifetime.BestEconomyKmL {
			s.lifetime.BestEconomyKmL = eco
		}
		if s.lifetime.WorstEconomyKmL == 0 || eco < s.lifetime.WorstEconomyKmL {
			s.lifetime.WorstEconomyKmL = eco
		}
	}

	if err := s.store.SaveTrip("a", s.tripA); err != nil {
		log.Printf("Ошибка сохранения счётчика A: %v", err)
	}
	if err := s.store.SaveTrip("b", s.tripB); err != nil {
		log.Printf("Ошибка сохранения счётчика B: %v", err)
	}
	if err := s.store.SaveLifetime(s.lifetime); err != nil {
		log.Printf("Ошибка сохранения статистики: %v", err)
	}
	s.dirty = false
}

// reset обнуляет счётчик поездки по команде сервера.
func (s *tripStats) reset(name string) {
	fresh := storage.TripData{StartTime: time.Now().Unix()}
	switch name {
	case "a":
		s.tripA = fresh
	case "b":
		s.tripB = fresh
	default:
		log.Printf("Неизвестный счётчик поездки: %q", name)
		return
	}
	s.dirty = true
	log.Printf("Счётчик поездки %q сброшен", name)
}

// runStats накапливает статистику раз в секунду и периодически сохраняет её.
func runStats(ctx context.Context, stats *tripStats, saveInterval time.Duration, resetCh <-chan string) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	saveTick := time.NewTicker(saveInterval)
	defer saveTick.Stop()

	for {
		select {
		case <-ctx.Done():
			// Финальное сохранение при остановке
			stats.save()
			return ctx.Err()
		case name := <-resetCh:
			stats.reset(name)
		case <-tick.C:
			stats.accumulate(1)
		case <-saveTick.C:
			stats.save()
		}
	}
}
