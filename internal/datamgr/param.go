package datamgr

// ParamID — идентификатор параметра в общей таблице. Значения фиксированы:
// по ним индексируется таблица, ими обмениваются хранилище и телеметрия,
// менять их между версиями нельзя.
type ParamID uint16

const (
	ParamNone ParamID = 0

	// Двигатель
	ParamEngineSpeed      ParamID = 1
	ParamEngineLoad       ParamID = 2
	ParamThrottlePosition ParamID = 3
	ParamCoolantTemp      ParamID = 4
	ParamOilTemp          ParamID = 5
	ParamOilPressure      ParamID = 6
	ParamBoostPressure    ParamID = 10
	ParamEngineHours      ParamID = 12

	// Трансмиссия
	ParamTransOilTemp ParamID = 50
	ParamCurrentGear  ParamID = 52

	// Движение
	ParamVehicleSpeed       ParamID = 80
	ParamCruiseControlSpeed ParamID = 85

	// Топливо
	ParamFuelLevel1 ParamID = 110
	ParamFuelRate   ParamID = 112

	// Электрика
	ParamBatteryVoltage ParamID = 130

	// Окружение
	ParamAmbientTemp ParamID = 150

	// Одометр
	ParamTotalDistance ParamID = 170

	// Диагностика
	ParamActiveDTCCount ParamID = 210
	ParamMILStatus      ParamID = 211

	// Вычисляемые
	ParamMPGCurrent   ParamID = 230
	ParamMPH          ParamID = 231
	ParamCoolantTempF ParamID = 232

	// Прочее
	ParamExtFuelLevel ParamID = 250
	ParamDimmerLevel  ParamID = 251

	// ParamMax — размер таблицы параметров.
	ParamMax ParamID = 256
)

// Source — происхождение значения параметра.
type Source uint8

const (
	SourceUnknown Source = iota
	SourceJ1939
	SourceJ1708
	SourceAnalog
	SourceComputed
	SourceStored
	SourceSimulated
)

func (s Source) String() string {
	switch s {
	case SourceJ1939:
		return "j1939"
	case SourceJ1708:
		return "j1708"
	case SourceAnalog:
		return "analog"
	case SourceComputed:
		return "computed"
	case SourceStored:
		return "stored"
	case SourceSimulated:
		return "simulated"
	}
	return "unknown"
}

type paramInfo struct {
	name string
	unit string
}

var paramInfos = map[ParamID]paramInfo{
	ParamEngineSpeed:        {"Engine Speed", "rpm"},
	ParamEngineLoad:         {"Engine Load", "%"},
	ParamThrottlePosition:   {"Throttle Position", "%"},
	ParamCoolantTemp:        {"Coolant Temp", "°C"},
	ParamOilTemp:            {"Oil Temp", "°C"},
	ParamOilPressure:        {"Oil Pressure", "kPa"},
	ParamBoostPressure:      {"Boost Pressure", "kPa"},
	ParamEngineHours:        {"Engine Hours", "h"},
	ParamTransOilTemp:       {"Trans Oil Temp", "°C"},
	ParamCurrentGear:        {"Current Gear", ""},
	ParamVehicleSpeed:       {"Vehicle Speed", "km/h"},
	ParamCruiseControlSpeed: {"Cruise Set Speed", "km/h"},
	ParamFuelLevel1:         {"Fuel Level", "%"},
	ParamFuelRate:           {"Fuel Rate", "l/h"},
	ParamBatteryVoltage:     {"Battery Voltage", "V"},
	ParamAmbientTemp:        {"Ambient Temp", "°C"},
	ParamTotalDistance:      {"Total Distance", "km"},
	ParamActiveDTCCount:     {"Active DTCs", ""},
	ParamMILStatus:          {"MIL Status", ""},
	ParamMPGCurrent:         {"Fuel Economy", "mpg"},
	ParamMPH:                {"Vehicle Speed", "mph"},
	ParamCoolantTempF:       {"Coolant Temp", "°F"},
	ParamExtFuelLevel:       {"Ext Fuel Level", "%"},
	ParamDimmerLevel:        {"Dimmer Level", "%"},
}

// ParamName возвращает имя параметра или "Unknown".
func ParamName(id ParamID) string {
	if info, ok := paramInfos[id]; ok {
		return info.name
	}
	return "Unknown"
}

// ParamUnit возвращает единицу измерения или пустую строку.
func ParamUnit(id ParamID) string {
	if info, ok := paramInfos[id]; ok {
		return info.unit
	}
	return ""
}
