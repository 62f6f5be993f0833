// Package watchlist ведёт список параметров, выводимых на экран панели:
// страницы, виджеты, пороги предупреждений и уровни тревоги. Сами значения
// живут в таблице параметров, здесь только отображение поверх них.
package watchlist

import (
	"math"

	"github.com/serebryakov7/truck-dash/internal/datamgr"
)

const (
	// MaxItems — предел наблюдаемых параметров.
	MaxItems = 16
	// MaxPages — число страниц экрана.
	MaxPages = 4
)

// Widget — способ отображения параметра.
type Widget uint8

const (
	WidgetGaugeCircular Widget = iota
	WidgetGaugeLinear
	WidgetGaugeSemicircle
	WidgetNumeric
	WidgetIndicator
	WidgetText
	WidgetGraph
)

// AlertLevel — уровень тревоги по порогам.
type AlertLevel uint8

const (
	AlertNone AlertLevel = iota
	AlertInfo
	AlertWarning
	AlertCritical
)

func (a AlertLevel) String() string {
	switch a {
	case AlertInfo:
		return "info"
	case AlertWarning:
		return "warning"
	case AlertCritical:
		return "critical"
	}
	return "none"
}

// Item — один наблюдаемый параметр со своими настройками отображения.
type Item struct {
	ParamID       datamgr.ParamID
	Widget        Widget
	Page          uint8
	Position      uint8
	DecimalPlaces uint8

	// Пороги; отключённый порог — ±Inf
	WarnLow  float64
	WarnHigh float64
	CritLow  float64
	CritHigh float64

	CustomLabel string
	CustomUnit  string

	GaugeMin float64
	GaugeMax float64

	Enabled      bool
	CurrentAlert AlertLevel
}

// List — список наблюдения. Владелец — горутина экрана/сторожа тревог,
// внутренней блокировки нет.
type List struct {
	items       []Item
	currentPage uint8
	dm          *datamgr.Manager
}

// New создаёт пустой список поверх таблицы параметров.
func New(dm *datamgr.Manager) *List {
	return &List{dm: dm}
}

// Add добавляет параметр в список. false — список полон, страница вне
// диапазона или параметр уже наблюдается.
func (l *List) Add(id datamgr.ParamID, widget Widget, page, position uint8) bool {
	if len(l.items) >= MaxItems || page >= MaxPages {
		return false
	}
	if l.Item(id) != nil {
		return false
	}

	l.items = append(l.items, Item{
		ParamID:       id,
		Widget:        widget,
		Page:          page,
		Position:      position,
		DecimalPlaces: 1,
		WarnLow:       math.Inf(-1),
		WarnHigh:      math.Inf(1),
		CritLow:       math.Inf(-1),
		CritHigh:      math.Inf(1),
		GaugeMin:      0,
		GaugeMax:      100,
		Enabled:       true,
	})
	return true
}

// Remove убирает параметр из списка.
func (l *List) Remove(id datamgr.ParamID) bool {
	for i := range l.items {
		if l.items[i].ParamID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Item возвращает запись параметра или nil.
func (l *List) Item(id datamgr.ParamID) *Item {
	for i := range l.items {
		if l.items[i].ParamID == id {
			return &l.items[i]
		}
	}
	return nil
}

// SetThresholds настраивает пороги предупреждения и тревоги.
func (l *List) SetThresholds(id datamgr.ParamID, warnLow, warnHigh, critLow, critHigh float64) bool {
	item := l.Item(id)
	if item == nil {
		return false
	}
	item.WarnLow, item.WarnHigh = warnLow, warnHigh
	item.CritLow, item.CritHigh = critLow, critHigh
	return true
}

// SetGaugeRange настраивает шкалу стрелочного виджета.
func (l *List) SetGaugeRange(id datamgr.ParamID, min, max float64) bool {
	item := l.Item(id)
	if item == nil {
		return false
	}
	item.GaugeMin, item.GaugeMax = min, max
	return true
}

// SetCustomLabel задаёт собственные подпись и единицу измерения.
func (l *List) SetCustomLabel(id datamgr.ParamID, label, unit string) bool {
	item := l.Item(id)
	if item == nil {
		return false
	}
	item.CustomLabel, item.CustomUnit = label, unit
	return true
}

// PageItems возвращает включённые записи страницы.
func (l *List) PageItems(page uint8) []*Item {
	var out []*Item
	for i := range l.items {
		if l.items[i].Page == page && l.items[i].Enabled {
			out = append(out, &l.items[i])
		}
	}
	return out
}

func checkAlertLevel(item *Item, value float64) AlertLevel {
	// Сначала критические пороги
	if value <= item.CritLow || value >= item.CritHigh {
		return AlertCritical
	}
	if value <= item.WarnLow || value >= item.WarnHigh {
		return AlertWarning
	}
	return AlertNone
}

// Update пересчитывает уровни тревоги по текущим значениям таблицы.
func (l *List) Update() {
	for i := range l.items {
		item := &l.items[i]
		if !item.Enabled {
			continue
		}
		if value, ok := l.dm.Get(item.ParamID); ok {
			item.CurrentAlert = checkAlertLevel(item, value)
		} else {
			// Нет данных — нет и тревоги
			item.CurrentAlert = AlertNone
		}
	}
}

// Value возвращает текущее значение параметра записи и её уровень тревоги.
func (l *List) Value(item *Item) (float64, AlertLevel, bool) {
	value, ok := l.dm.Get(item.ParamID)
	if !ok {
		return 0, AlertNone, false
	}
	return value, item.CurrentAlert, true
}

// HighestAlert возвращает самый высокий активный уровень тревоги.
func (l *List) HighestAlert() AlertLevel {
	highest := AlertNone
	for i := range l.items {
		if l.items[i].Enabled && l.items[i].CurrentAlert > highest {
			highest = l.items[i].CurrentAlert
		}
	}
	return highest
}

// AlertCount считает записи с тревогой не ниже заданного уровня.
func (l *List) AlertCount(level AlertLevel) int {
	n := 0
	for i := range l.items {
		if l.items[i].Enabled && l.items[i].CurrentAlert >= level {
			n++
		}
	}
	return n
}

// Page возвращает текущую страницу.
func (l *List) Page() uint8 { return l.currentPage }

// SetPage выбирает страницу; значение вне диапазона сбрасывает на нулевую.
func (l *List) SetPage(page uint8) {
	if page >= MaxPages {
		page = 0
	}
	l.currentPage = page
}

// NextPage листает страницы по кругу.
func (l *List) NextPage() uint8 {
	l.currentPage = (l.currentPage + 1) % MaxPages
	return l.currentPage
}

// Label возвращает подпись записи: собственную или из таблицы параметров.
func (l *List) Label(item *Item) string {
	if item.CustomLabel != "" {
		return item.CustomLabel
	}
	return datamgr.ParamName(item.ParamID)
}

// Unit возвращает единицу измерения записи.
func (l *List) Unit(item *Item) string {
	if item.CustomUnit != "" {
		return item.CustomUnit
	}
	return datamgr.ParamUnit(item.ParamID)
}

// Clear очищает список и возвращает на нулевую страницу.
func (l *List) Clear() {
	l.items = nil
	l.currentPage = 0
}

// SetupDefaults наполняет список типовым набором грузовой панели:
// страница 0 — двигатель, 1 — скорость и топливо, 2 — трансмиссия,
// 3 — диагностика.
func (l *List) SetupDefaults() {
	l.Clear()

	inf := math.Inf(1)

	l.Add(datamgr.ParamEngineSpeed, WidgetGaugeCircular, 0, 0)
	l.SetThresholds(datamgr.ParamEngineSpeed, 400, 2200, 300, 2500)
	l.SetGaugeRange(datamgr.ParamEngineSpeed, 0, 3000)

	l.Add(datamgr.ParamCoolantTemp, WidgetGaugeLinear, 0, 1)
	l.SetThresholds(datamgr.ParamCoolantTemp, 70, 100, 50, 110)
	l.SetGaugeRange(datamgr.ParamCoolantTemp, 40, 120)

	l.Add(datamgr.ParamOilPressure, WidgetGaugeLinear, 0, 2)
	l.SetThresholds(datamgr.ParamOilPressure, 150, inf, 100, inf)
	l.SetGaugeRange(datamgr.ParamOilPressure, 0, 700)

	l.Add(datamgr.ParamBoostPressure, WidgetGaugeSemicircle, 0, 3)
	l.SetGaugeRange(datamgr.ParamBoostPressure, 0, 300)

	l.Add(datamgr.ParamVehicleSpeed, WidgetGaugeCircular, 1, 0)
	l.SetGaugeRange(datamgr.ParamVehicleSpeed, 0, 140)

	l.Add(datamgr.ParamFuelLevel1, WidgetGaugeLinear, 1, 1)
	l.SetThresholds(datamgr.ParamFuelLevel1, 15, inf, 10, inf)
	l.SetGaugeRange(datamgr.ParamFuelLevel1, 0, 100)

	l.Add(datamgr.ParamFuelRate, WidgetNumeric, 1, 2)
	l.Add(datamgr.ParamMPGCurrent, WidgetNumeric, 1, 3)

	l.Add(datamgr.ParamTransOilTemp, WidgetGaugeLinear, 2, 0)
	l.SetThresholds(datamgr.ParamTransOilTemp, -inf, 100, -inf, 120)
	l.SetGaugeRange(datamgr.ParamTransOilTemp, 0, 150)

	l.Add(datamgr.ParamCurrentGear, WidgetNumeric, 2, 1)
	if item := l.Item(datamgr.ParamCurrentGear); item != nil {
		item.DecimalPlaces = 0
	}

	l.Add(datamgr.ParamEngineHours, WidgetNumeric, 2, 2)

	l.Add(datamgr.ParamBatteryVoltage, WidgetNumeric, 3, 0)
	l.SetThresholds(datamgr.ParamBatteryVoltage, 12.0, 15.0, 11.5, 15.5)

	l.Add(datamgr.ParamActiveDTCCount, WidgetIndicator, 3, 1)
	l.SetThresholds(datamgr.ParamActiveDTCCount, -inf, 0.5, -inf, 0.5)
	if item := l.Item(datamgr.ParamActiveDTCCount); item != nil {
		item.DecimalPlaces = 0
	}

	l.Add(datamgr.ParamAmbientTemp, WidgetNumeric, 3, 2)
}
