// Package sim генерирует правдоподобный трафик J1939 и J1708 без железа.
// Кадры уходят в те же точки входа декодеров, что и кадры с настоящих шин,
// поэтому вся цепочка разбора проверяется целиком.
package sim

import (
	"math"
	"math/rand"
)

// Scenario — сценарий поведения машины.
type Scenario uint8

const (
	ScenarioIdle Scenario = iota
	ScenarioHighway
	ScenarioCity
	ScenarioColdStart
	ScenarioAcceleration
	ScenarioFault
)

// ParseScenario разбирает имя сценария из флага командной строки.
func ParseScenario(name string) (Scenario, bool) {
	switch name {
	case "idle":
		return ScenarioIdle, true
	case "highway":
		return ScenarioHighway, true
	case "city":
		return ScenarioCity, true
	case "cold-start":
		return ScenarioColdStart, true
	case "acceleration":
		return ScenarioAcceleration, true
	case "fault":
		return ScenarioFault, true
	}
	return ScenarioIdle, false
}

// VehicleState — мгновенное состояние виртуального грузовика.
type VehicleState struct {
	EngineRPM        float64
	VehicleSpeedKmh  float64
	ThrottlePosition float64
	EngineLoad       float64
	CoolantTempC     float64
	OilTempC         float64
	OilPressureKPa   float64
	BoostPressureKPa float64
	TransOilTempC    float64
	FuelRateLph      float64
	FuelLevelPct     float64
	BatteryVoltage   float64
	AmbientTempC     float64
	EngineHours      float64
	OdometerKm       float64
	CurrentGear      int8
	SelectedGear     int8
	CruiseActive     bool
	CruiseSetSpeed   uint8
	ParkingBrake     bool
	BrakeSwitch      bool

	HasActiveFault  bool
	FaultSPN        uint32
	FaultFMI        uint8
	FaultOccurrence uint8
}

// Timing — периоды выдачи кадров по PGN, в миллисекундах.
type Timing struct {
	EEC1IntervalMs int64
	EEC2IntervalMs int64
	ET1IntervalMs  int64
	CCVSIntervalMs int64
	LFEIntervalMs  int64
	ETC2IntervalMs int64
	VEP1IntervalMs int64
	DDIntervalMs   int64
}

// DefaultTiming — периоды, близкие к требованиям J1939-71.
func DefaultTiming() Timing {
	return Timing{
		EEC1IntervalMs: 10,   // обороты — самый частый кадр
		EEC2IntervalMs: 50,   // педаль
		ET1IntervalMs:  1000, // температуры — медленные
		CCVSIntervalMs: 100,  // скорость
		LFEIntervalMs:  100,  // расход
		ETC2IntervalMs: 100,  // передача
		VEP1IntervalMs: 1000, // АКБ
		DDIntervalMs:   1000, // уровень топлива
	}
}

// CANFrameFunc получает сгенерированный кадр CAN.
type CANFrameFunc func(canID uint32, data []byte, timestampMs int64)

// J1708MessageFunc получает сгенерированное сообщение J1708 целиком,
// с контрольной суммой.
type J1708MessageFunc func(raw []byte, timestampMs int64)

// Simulator — генератор трафика. Владелец — одна горутина, вызывающая
// Update с шагом модельного времени.
type Simulator struct {
	scenario Scenario
	timing   Timing
	state    VehicleState
	rng      *rand.Rand

	canCb   CANFrameFunc
	j1708Cb J1708MessageFunc

	elapsedMs int64

	lastEEC1Ms  int64
	lastEEC2Ms  int64
	lastET1Ms   int64
	lastCCVSMs  int64
	lastLFEMs   int64
	lastETC2Ms  int64
	lastVEP1Ms  int64
	lastDDMs    int64
	lastDM1Ms   int64
	lastJ1708Ms int64

	targetRPM      float64
	targetSpeed    float64
	targetThrottle float64
}

// New создаёт симулятор с прогретым состоянием и детерминированным
// генератором случайности.
func New(canCb CANFrameFunc, j1708Cb J1708MessageFunc, seed int64) *Simulator {
	return &Simulator{
		timing:  DefaultTiming(),
		rng:     rand.New(rand.NewSource(seed)),
		canCb:   canCb,
		j1708Cb: j1708Cb,
		state: VehicleState{
			CoolantTempC:   85,
			OilTempC:       95,
			TransOilTempC:  75,
			OilPressureKPa: 350,
			BatteryVoltage: 13.8,
			FuelLevelPct:   75,
			AmbientTempC:   25,
			EngineHours:    12500,
			OdometerKm:     450000,
		},
	}
}

// SetScenario переключает сценарий и сбрасывает модельное время.
func (s *Simulator) SetScenario(sc Scenario) {
	s.scenario = sc
	s.elapsedMs = 0

	if sc == ScenarioColdStart {
		s.state.CoolantTempC = -10
		s.state.OilTempC = -5
		s.state.EngineRPM = 0
		s.state.BatteryVoltage = 12.4
	}
}

// SetTiming задаёт периоды выдачи кадров.
func (s *Simulator) SetTiming(t Timing) { s.timing = t }

// State возвращает копию текущего состояния.
func (s *Simulator) State() VehicleState { return s.state }

// TriggerFault включает активный код неисправности в кадрах DM1.
func (s *Simulator) TriggerFault(spn uint32, fmi uint8) {
	s.state.HasActiveFault = true
	s.state.FaultSPN = spn
	s.state.FaultFMI = fmi
	s.state.FaultOccurrence++
}

// ClearFault убирает активный код.
func (s *Simulator) ClearFault() {
	s.state.HasActiveFault = false
}

func (s *Simulator) randFloat(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func lerp(current, target, rate float64) float64 {
	diff := target - current
	if math.Abs(diff) < rate {
		return target
	}
	if diff > 0 {
		return current + rate
	}
	return current - rate
}

// Update продвигает модель на deltaMs и выдаёт накопившиеся кадры.
func (s *Simulator) Update(deltaMs int64) {
	deltaS := float64(deltaMs) / 1000
	s.elapsedMs += deltaMs

	switch s.scenario {
	case ScenarioIdle:
		s.updateIdle(deltaS)
	case ScenarioHighway:
		s.updateHighway(deltaS)
	case ScenarioCity:
		s.updateCity(deltaS)
	case ScenarioColdStart:
		s.updateColdStart(deltaS)
	case ScenarioAcceleration:
		s.updateAcceleration(deltaS)
	case ScenarioFault:
		s.updateFault(deltaS)
	}

	// Давление масла следует за оборотами
	if s.state.EngineRPM > 0 && s.scenario != ScenarioColdStart {
		rpmFactor := s.state.EngineRPM / 2000
		s.state.OilPressureKPa = 200 + 200*rpmFactor + s.randFloat(-10, 10)
	} else if s.state.EngineRPM == 0 {
		s.state.OilPressureKPa = 0
	}

	s.state.EngineRPM = clamp(s.state.EngineRPM, 0, 2800)
	s.state.VehicleSpeedKmh = clamp(s.state.VehicleSpeedKmh, 0, 150)
	s.state.CoolantTempC = clamp(s.state.CoolantTempC, -40, 120)
	s.state.FuelLevelPct = clamp(s.state.FuelLevelPct, 0, 100)

	s.emitFrames()
}

func (s *Simulator) updateIdle(deltaS float64) {
	s.targetRPM = 700 + s.randFloat(-20, 20)
	s.targetSpeed = 0
	s.targetThrottle = 0

	s.state.EngineRPM = lerp(s.state.EngineRPM, s.targetRPM, 50*deltaS)
	s.state.VehicleSpeedKmh = 0
	s.state.ThrottlePosition = lerp(s.state.ThrottlePosition, 0, 20*deltaS)
	s.state.EngineLoad = 15 + s.randFloat(-2, 2)
	s.state.FuelRateLph = 3 + s.randFloat(-0.2, 0.2)
	s.state.BoostPressureKPa = 100 + s.randFloat(-5, 5)
	s.state.CurrentGear = 0
	s.state.ParkingBrake = true

	s.state.CoolantTempC = lerp(s.state.CoolantTempC, 85, 0.5*deltaS)
	s.state.OilTempC = lerp(s.state.OilTempC, 95, 0.3*deltaS)
	s.state.TransOilTempC = lerp(s.state.TransOilTempC, 75, 0.3*deltaS)
}

func (s *Simulator) updateHighway(deltaS float64) {
	s.targetRPM = 1400 + s.randFloat(-30, 30)
	s.targetSpeed = 105 + s.randFloat(-2, 2)
	s.targetThrottle = 45 + s.randFloat(-5, 5)

	s.state.EngineRPM = lerp(s.state.EngineRPM, s.targetRPM, 100*deltaS)
	s.state.VehicleSpeedKmh = lerp(s.state.VehicleSpeedKmh, s.targetSpeed, 5*deltaS)
	s.state.ThrottlePosition = lerp(s.state.ThrottlePosition, s.targetThrottle, 30*deltaS)
	s.state.EngineLoad = 55 + s.randFloat(-5, 5)
	s.state.FuelRateLph = 28 + s.randFloat(-2, 2)
	s.state.BoostPressureKPa = 180 + s.randFloat(-10, 10)
	s.state.CurrentGear = 10
	s.state.SelectedGear = 10
	s.state.ParkingBrake = false
	s.state.CruiseActive = true
	s.state.CruiseSetSpeed = 105

	s.state.CoolantTempC = lerp(s.state.CoolantTempC, 88, 0.3*deltaS)
	s.state.OilTempC = lerp(s.state.OilTempC, 105, 0.2*deltaS)
	s.state.TransOilTempC = lerp(s.state.TransOilTempC, 85, 0.2*deltaS)

	s.state.FuelLevelPct -= 0.001 * deltaS
	if s.state.FuelLevelPct < 0 {
		s.state.FuelLevelPct = 100 // заправились
	}

	s.state.OdometerKm += s.state.VehicleSpeedKmh * deltaS / 3600
	s.state.EngineHours += deltaS / 3600
}

func (s *Simulator) updateCity(deltaS float64) {
	// 60-секундный цикл: разгон, движение, торможение, светофор
	cycle := math.Mod(float64(s.elapsedMs)/1000, 60)

	switch {
	case cycle < 10:
		s.targetRPM = 1800 + s.randFloat(-50, 50)
		s.targetSpeed = cycle * 5
		s.targetThrottle = 60
		s.state.CurrentGear = int8(cycle/2) + 1
		s.state.BrakeSwitch = false
	case cycle < 30:
		s.targetRPM = 1200
		s.targetSpeed = 50
		s.targetThrottle = 30
		s.state.CurrentGear = 5
		s.state.BrakeSwitch = false
	case cycle < 40:
		s.targetRPM = 800
		s.targetSpeed = 50 - (cycle-30)*5
		s.targetThrottle = 0
		s.state.BrakeSwitch = true
	default:
		s.targetRPM = 700
		s.targetSpeed = 0
		s.targetThrottle = 0
		s.state.CurrentGear = 0
		s.state.BrakeSwitch = true
	}

	s.state.EngineRPM = lerp(s.state.EngineRPM, s.targetRPM, 200*deltaS)
	s.state.VehicleSpeedKmh = lerp(s.state.VehicleSpeedKmh, s.targetSpeed, 10*deltaS)
	s.state.ThrottlePosition = lerp(s.state.ThrottlePosition, s.targetThrottle, 50*deltaS)
	s.state.ParkingBrake = false
}

func (s *Simulator) updateColdStart(deltaS float64) {
	elapsed := float64(s.elapsedMs) / 1000

	switch {
	case elapsed < 2:
		// Прокрутка стартером
		s.state.EngineRPM = 200 + s.randFloat(-30, 30)
		s.state.BatteryVoltage = 10.5 + s.randFloat(-0.5, 0.5)
	case elapsed < 5:
		s.state.EngineRPM = lerp(s.state.EngineRPM, 900, 200*deltaS)
		s.state.BatteryVoltage = lerp(s.state.BatteryVoltage, 14.2, 2*deltaS)
	default:
		// Повышенные холостые, спадающие по мере прогрева
		warmup := clamp((elapsed-5)/180, 0, 1)
		s.targetRPM = 900 - 200*warmup
		s.state.EngineRPM = lerp(s.state.EngineRPM, s.targetRPM, 50*deltaS)
	}

	warmupFactor := clamp(elapsed/300, 0, 1)
	s.state.CoolantTempC = lerp(s.state.CoolantTempC, -10+95*warmupFactor, 0.5*deltaS)
	s.state.OilTempC = s.state.CoolantTempC - 10
	s.state.OilPressureKPa = 150 + 150*(1-warmupFactor) + s.randFloat(-10, 10)

	s.state.VehicleSpeedKmh = 0
	s.state.ParkingBrake = true
}

func (s *Simulator) updateAcceleration(deltaS float64) {
	elapsed := float64(s.elapsedMs) / 1000

	if elapsed < 15 {
		s.state.ThrottlePosition = 100
		s.state.EngineLoad = 95 + s.randFloat(-3, 3)

		// Переключения вверх по оборотам
		if s.state.EngineRPM > 2000 && s.state.CurrentGear < 10 {
			s.state.CurrentGear++
			s.state.EngineRPM = 1200
		}

		s.targetRPM = 2200
		s.state.EngineRPM = lerp(s.state.EngineRPM, s.targetRPM, 400*deltaS)

		s.targetSpeed = float64(s.state.CurrentGear) * 12
		s.state.VehicleSpeedKmh = lerp(s.state.VehicleSpeedKmh, s.targetSpeed, 5*deltaS)

		s.state.BoostPressureKPa = 250 + s.randFloat(-10, 10)
		s.state.FuelRateLph = 80 + s.randFloat(-5, 5)
	} else {
		// Накат
		s.state.ThrottlePosition = lerp(s.state.ThrottlePosition, 0, 30*deltaS)
		s.state.EngineRPM = lerp(s.state.EngineRPM, 1200, 100*deltaS)
	}

	s.state.ParkingBrake = false
	s.state.SelectedGear = s.state.CurrentGear
}

func (s *Simulator) updateFault(deltaS float64) {
	s.updateHighway(deltaS)

	if !s.state.HasActiveFault {
		// Перегрев охлаждающей жидкости
		s.state.HasActiveFault = true
		s.state.FaultSPN = 110
		s.state.FaultFMI = 0
		s.state.FaultOccurrence = 1
		s.state.CoolantTempC = 105
	}
}
