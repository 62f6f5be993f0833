package datamgr

import (
	"math"
	"sync"
)

const (
	// MaxCallbacks — предел подписчиков на изменения параметров.
	MaxCallbacks = 16
	// changeEpsilon — порог изменения значения, ниже которого подписчики
	// не дёргаются.
	changeEpsilon = 0.001
	// AgeInvalid — возраст невалидного параметра.
	AgeInvalid = int64(math.MaxInt64)
)

// Callback вызывается при первом валидном значении параметра и при каждом
// изменении больше порога. Вызов идёт синхронно под общим мьютексом
// таблицы: повторный вход в Update из колбэка приведёт к взаимоблокировке.
type Callback func(id ParamID, newValue, oldValue float64)

// Parameter — слот таблицы: текущее и предыдущее значения, метка времени,
// источник и счётчик обновлений.
type Parameter struct {
	Value       float64
	PrevValue   float64
	TimestampMs int64
	Source      Source
	Valid       bool
	UpdateCount uint32
}

// Manager — общая таблица параметров. Единственная точка обмена между
// горутинами приёма CAN, приёма J1708, вычисляемых параметров и
// потребителями (хранилище, телеметрия). Вся таблица под одним мьютексом:
// prev/value/timestamp/valid должны наблюдаться согласованной группой.
type Manager struct {
	mu           sync.Mutex
	params       [ParamMax]Parameter
	callbacks    []Callback
	totalUpdates uint64
}

// New создаёт пустую таблицу параметров.
func New() *Manager {
	return &Manager{}
}

// Update записывает новое значение параметра. Нулевой или выходящий за
// таблицу идентификатор молча игнорируется.
func (m *Manager) Update(id ParamID, value float64, source Source, timestampMs int64) {
	if id == ParamNone || id >= ParamMax {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &m.params[id]
	wasValid := p.Valid
	oldValue := p.Value

	p.PrevValue = p.Value
	p.Value = value
	p.TimestampMs = timestampMs
	p.Source = source
	p.Valid = true
	p.UpdateCount++
	m.totalUpdates++

	if !wasValid || math.Abs(value-oldValue) > changeEpsilon {
		for _, cb := range m.callbacks {
			cb(id, value, oldValue)
		}
	}
}

// Get возвращает текущее значение. false — параметр ни разу не обновлялся
// или был инвалидирован.
func (m *Manager) Get(id ParamID) (float64, bool) {
	if id == ParamNone || id >= ParamMax {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &m.params[id]
	if !p.Valid {
		return 0, false
	}
	return p.Value, true
}

// GetWithTimestamp возвращает значение вместе с меткой времени и источником.
func (m *Manager) GetWithTimestamp(id ParamID) (value float64, timestampMs int64, source Source, ok bool) {
	if id == ParamNone || id >= ParamMax {
		return 0, 0, SourceUnknown, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &m.params[id]
	if !p.Valid {
		return 0, 0, SourceUnknown, false
	}
	return p.Value, p.TimestampMs, p.Source, true
}

// IsFresh сообщает, обновлялся ли параметр не раньше, чем maxAgeMs назад.
func (m *Manager) IsFresh(id ParamID, nowMs, maxAgeMs int64) bool {
	age := m.Age(id, nowMs)
	return age != AgeInvalid && age <= maxAgeMs
}

// Age возвращает возраст значения в миллисекундах, AgeInvalid — если
// параметр невалиден.
func (m *Manager) Age(id ParamID, nowMs int64) int64 {
	if id == ParamNone || id >= ParamMax {
		return AgeInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &m.params[id]
	if !p.Valid {
		return AgeInvalid
	}
	return nowMs - p.TimestampMs
}

// Invalidate помечает параметр невалидным, не стирая значение: Get будет
// отказывать, пока не придёт новое обновление.
func (m *Manager) Invalidate(id ParamID) {
	if id == ParamNone || id >= ParamMax {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[id].Valid = false
}

// RegisterCallback добавляет подписчика. false — список заполнен.
func (m *Manager) RegisterCallback(cb Callback) bool {
	if cb == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.callbacks) >= MaxCallbacks {
		return false
	}
	m.callbacks = append(m.callbacks, cb)
	return true
}

// Stats возвращает число валидных параметров и общий счётчик обновлений.
func (m *Manager) Stats() (validCount int, totalUpdates uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.params {
		if m.params[i].Valid {
			validCount++
		}
	}
	return validCount, m.totalUpdates
}

// Snapshot возвращает копии всех валидных слотов таблицы. Используется
// публикацией телеметрии и сохранением состояния.
func (m *Manager) Snapshot() map[ParamID]Parameter {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[ParamID]Parameter)
	for i := range m.params {
		if m.params[i].Valid {
			out[ParamID(i)] = m.params[i]
		}
	}
	return out
}
