package common

// ParamValue — одно значение параметра в снимке.
type ParamValue struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	Source string  `json:"source"`
	AgeMs  int64   `json:"age_ms"`
}

// Snapshot — периодически публикуемый снимок таблицы параметров.
// Ключ карты — имя параметра.
type Snapshot struct {
	Timestamp  int64                 `json:"timestamp"` // Unix Nano
	Params     map[string]ParamValue `json:"params"`
	ActiveDTCs []DTCCode             `json:"active_dtcs,omitempty"`
}

// ParamChange — событие изменения параметра для живой ленты (websocket).
type ParamChange struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	PrevValue float64 `json:"prev_value"`
	Unit      string  `json:"unit,omitempty"`
	Timestamp int64   `json:"timestamp"` // Unix Milli
}
