package common

// CommandType определяет тип команды от сервера.
type CommandType string

const (
	// CommandTypeClearDTCs предписывает сбросить активные коды неисправностей.
	CommandTypeClearDTCs CommandType = "clear_dtcs"
	// CommandTypeSetScenario переключает сценарий симулятора (только в режиме -sim).
	CommandTypeSetScenario CommandType = "set_scenario"
	// CommandTypeResetTrip сбрасывает накопленный счётчик поездки.
	CommandTypeResetTrip CommandType = "reset_trip"
)

// ServerCommand представляет команду, полученную от сервера через MQTT.
type ServerCommand struct {
	Type   CommandType   `json:"type"`
	Params CommandParams `json:"params,omitempty"`
}

// CommandParams содержит параметры для различных команд.
// Используйте указатели, чтобы опускать незаполненные поля в JSON.
type CommandParams struct {
	// Scenario — имя сценария для set_scenario.
	Scenario *string `json:"scenario,omitempty"`
	// Trip — имя счётчика ("a" или "b") для reset_trip.
	Trip *string `json:"trip,omitempty"`
	// SPN и FMI могут использоваться для более специфичных команд, связанных с DTC.
	SPN *int `json:"spn,omitempty"`
	FMI *int `json:"fmi,omitempty"`
}

// CommandAck представляет подтверждение выполнения команды.
type CommandAck struct {
	CommandID string `json:"command_id"` // Идентификатор исходной команды, если есть
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}
