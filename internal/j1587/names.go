package j1587

import "fmt"

// J1587 MIDs для различных электронных модулей
var midDescriptions = map[uint8]string{
	128: "Двигатель #1",
	129: "Двигатель #2",
	130: "Трансмиссия",
	136: "ABS прицепа #1",
	137: "ABS прицепа #2",
	140: "Приборная панель",
	142: "Бортовой компьютер",
	172: "ABS тягача",
	175: "Контроль давления в шинах",
}

var pidNames = map[uint8]string{
	PIDRoadSpeed:      "Road Speed",
	PIDThrottle:       "Throttle Position",
	PIDEngineLoad:     "Percent Load",
	PIDFuelLevel:      "Fuel Level 1",
	PIDOilPressure:    "Engine Oil Pressure",
	PIDBoostPressure:  "Boost Pressure",
	PIDIntakeTemp:     "Intake Manifold Temp",
	PIDCoolantTemp:    "Coolant Temperature",
	PIDBatteryVoltage: "Battery Voltage",
	PIDAmbientTemp:    "Ambient Temperature",
	PIDTransOilTemp:   "Trans Oil Temperature",
	PIDFuelRate:       "Fuel Rate",
	PIDEngineSpeed:    "Engine Speed",
	PIDActiveDTC:      "Active Fault Codes",
	PIDHistoricDTC:    "Historical Fault Codes",
	PIDTotalDistance:  "Total Vehicle Distance",
	PIDEngineHours:    "Engine Total Hours",
}

// Описания кодов неисправности FMI (Failure Mode Identifier)
var fmiDescriptions = map[uint8]string{
	0:  "Данные выше нормы",
	1:  "Данные ниже нормы",
	2:  "Некорректные данные",
	3:  "Электрическая неисправность",
	4:  "Электрическая неисправность",
	5:  "Электрическая неисправность",
	6:  "Электрическая неисправность",
	7:  "Механическая неисправность",
	8:  "Нестандартная частота или скважность сигнала",
	9:  "Нестандартная скорость обновления",
	10: "Нестандартная скорость изменения",
	11: "Неопределенная неисправность",
	12: "Повреждение устройства или компонента",
	13: "Некорректная калибровка",
	14: "Особая инструкция",
	15: "Данные выше нормы (наименьшая серьезность)",
}

// MIDName возвращает описание модуля-источника.
func MIDName(mid uint8) string {
	if desc, ok := midDescriptions[mid]; ok {
		return desc
	}
	return "Неизвестный модуль"
}

// PIDName возвращает имя параметра или "Unknown".
func PIDName(pid uint8) string {
	if name, ok := pidNames[pid]; ok {
		return name
	}
	return "Unknown"
}

// FMIDescription возвращает описание вида отказа.
func FMIDescription(fmi uint8) string {
	if desc, ok := fmiDescriptions[fmi]; ok {
		return desc
	}
	return "Неизвестная неисправность"
}

// DescribeFault собирает человекочитаемое описание кода неисправности.
func DescribeFault(f FaultCode) string {
	kind := "Параметр ID"
	if f.IsSID {
		kind = "Подсистема ID"
	}
	return fmt.Sprintf("Модуль: %s, %s: %d, Режим: %s",
		MIDName(f.MID), kind, f.PIDOrSID, FMIDescription(f.FMI))
}
