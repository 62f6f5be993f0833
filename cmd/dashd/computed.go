package main

import (
	"context"
	"time"

	"github.com/serebryakov7/truck-dash/common"
	"github.com/serebryakov7/truck-dash/internal/datamgr"
	"github.com/serebryakov7/truck-dash/pkg/ws"
)

const (
	kmPerMile    = 1.60934
	litersPerGal = 3.78541
)

// paramEvent — изменение параметра, вынесенное из callback'а таблицы.
// Callback работает под блокировкой таблицы и не имеет права ни блокироваться,
// ни вызывать Update, поэтому события уходят в буферизированный канал
// и обрабатываются отдельной горутиной.
type paramEvent struct {
	id        datamgr.ParamID
	value     float64
	prevValue float64
}

// registerEventForwarder подключает callback таблицы к каналу событий.
// Переполненный канал роняет событие, а не приём кадров.
func registerEventForwarder(dm *datamgr.Manager, events chan<- paramEvent) bool {
	return dm.RegisterCallback(func(id datamgr.ParamID, newValue, oldValue float64) {
		select {
		case events <- paramEvent{id: id, value: newValue, prevValue: oldValue}:
		default:
		}
	})
}

// runEvents раздаёт изменения параметров в websocket и считает производные
// параметры: скорость в милях, температуру в Фаренгейтах, мгновенный расход.
func runEvents(ctx context.Context, dm *datamgr.Manager, hub *ws.Hub, events <-chan paramEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			hub.Broadcast(common.ParamChange{
				Name:      datamgr.ParamName(ev.id),
				Value:     ev.value,
				PrevValue: ev.prevValue,
				Unit:      datamgr.ParamUnit(ev.id),
				Timestamp: time.Now().UnixMilli(),
			})
			deriveParams(dm, ev)
		}
	}
}

func deriveParams(dm *datamgr.Manager, ev paramEvent) {
	now := time.Now().UnixMilli()

	switch ev.id {
	case datamgr.ParamVehicleSpeed:
		dm.Update(datamgr.ParamMPH, ev.value/kmPerMile, datamgr.SourceComputed, now)
		updateMPG(dm, now)
	case datamgr.ParamCoolantTemp:
		dm.Update(datamgr.ParamCoolantTempF, ev.value*9/5+32, datamgr.SourceComputed, now)
	case datamgr.ParamFuelRate:
		updateMPG(dm, now)
	}
}

// updateMPG пересчитывает мгновенный расход в милях на галлон.
// На стоянке или при ничтожной подаче топлива параметр обнуляется.
func updateMPG(dm *datamgr.Manager, nowMs int64) {
	speed, okSpeed := dm.Get(datamgr.ParamVehicleSpeed)
	rate, okRate := dm.Get(datamgr.ParamFuelRate)
	if !okSpeed || !okRate {
		return
	}

	mpg := 0.0
	if rate > 0.5 {
		mpg = (speed / kmPerMile) / (rate / litersPerGal)
	}
	dm.Update(datamgr.ParamMPGCurrent, mpg, datamgr.SourceComputed, nowMs)
}
