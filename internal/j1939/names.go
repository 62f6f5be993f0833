package j1939

import "fmt"

// Имена групп параметров по J1939-71.
var pgnNames = map[uint32]string{
	PGNRequest: "Request",
	PGNTPCM:    "TP Connection Management",
	PGNTPDT:    "TP Data Transfer",
	PGNEEC1:    "Electronic Engine Controller 1",
	PGNEEC2:    "Electronic Engine Controller 2",
	PGNETC1:    "Electronic Transmission Controller 1",
	PGNETC2:    "Electronic Transmission Controller 2",
	PGNET1:     "Engine Temperature 1",
	PGNEFLP1:   "Engine Fluid Level/Pressure 1",
	PGNCCVS:    "Cruise Control/Vehicle Speed",
	PGNLFE:     "Fuel Economy",
	PGNAMB:     "Ambient Conditions",
	PGNIC1:     "Intake/Exhaust Conditions 1",
	PGNVEP1:    "Vehicle Electrical Power 1",
	PGNTRF1:    "Transmission Fluids 1",
	PGNDD:      "Dash Display",
	PGNHours:   "Engine Hours, Revolutions",
	PGNDM1:     "Active Diagnostic Trouble Codes",
	PGNDM2:     "Previously Active Diagnostic Trouble Codes",
}

// Описание источников сообщений
var sourceDescriptions = map[uint8]string{
	0:   "Двигатель",
	2:   "Турбокомпрессор",
	3:   "Трансмиссия",
	11:  "Система управления тормозами",
	15:  "Ретардер двигателя",
	17:  "Круиз-контроль",
	18:  "Топливная система",
	23:  "Приборная панель",
	33:  "Электронный блок управления кузовом",
	49:  "Шлюз сети",
	252: "Сервисный инструмент",
}

// Описания кодов неисправности J1939 SPN-FMI
var fmiDescriptions = map[uint8]string{
	0:  "Данные выше нормального рабочего диапазона",
	1:  "Данные ниже нормального рабочего диапазона",
	2:  "Некорректные, перемежающиеся или неверные данные",
	3:  "Напряжение выше нормы или короткое замыкание на высокое напряжение",
	4:  "Напряжение ниже нормы или короткое замыкание на низкое напряжение",
	5:  "Низкий ток или обрыв цепи",
	6:  "Высокий ток или короткое замыкание на массу",
	7:  "Механическая система не отвечает или не откалибрована",
	8:  "Ненормальная частота, период или ширина импульса",
	9:  "Ненормальная скорость обновления",
	10: "Ненормальная скорость изменения",
	11: "Неопределенная неисправность",
	12: "Неисправное устройство или компонент",
	13: "Некорректная калибровка",
	14: "Особые инструкции",
	15: "Данные выше нормального рабочего диапазона (наименьшая серьезность)",
	16: "Данные выше нормального рабочего диапазона (средняя серьезность)",
	17: "Данные ниже нормального рабочего диапазона (наименьшая серьезность)",
	18: "Данные ниже нормального рабочего диапазона (средняя серьезность)",
	19: "Получены ошибочные данные от сети",
	20: "Данные отклоняются вверх (наименьшая серьезность)",
	21: "Данные отклоняются вниз (наименьшая серьезность)",
	31: "Условие существует",
}

// PGNName возвращает имя группы параметров или "Unknown".
func PGNName(pgn uint32) string {
	if name, ok := pgnNames[pgn]; ok {
		return name
	}
	return "Unknown"
}

// SourceName возвращает описание источника сообщения.
func SourceName(sourceAddress uint8) string {
	if desc, ok := sourceDescriptions[sourceAddress]; ok {
		return desc
	}
	return "Неизвестный модуль"
}

// FMIDescription возвращает описание вида отказа.
func FMIDescription(fmi uint8) string {
	if desc, ok := fmiDescriptions[fmi]; ok {
		return desc
	}
	return "Неизвестная неисправность"
}

// DescribeDTC собирает человекочитаемое описание кода неисправности.
func DescribeDTC(sourceAddress uint8, dtc DTC) string {
	return fmt.Sprintf("Модуль: %s, SPN: %d, Режим: %s",
		SourceName(sourceAddress), dtc.SPN, FMIDescription(dtc.FMI))
}
