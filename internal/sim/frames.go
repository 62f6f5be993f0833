package sim

import (
	"github.com/serebryakov7/truck-dash/internal/j1587"
	"github.com/serebryakov7/truck-dash/internal/j1939"
)

// Адреса источников виртуальных блоков.
const (
	saEngine       = 0x00
	saTransmission = 0x03
	midEngine      = 128
	midCluster     = 140
)

func fill(data []byte, b byte) {
	for i := range data {
		data[i] = b
	}
}

func putU16(data []byte, off int, v uint16) {
	data[off] = byte(v)
	data[off+1] = byte(v >> 8)
}

// buildEEC1 — обороты и крутящий момент (PGN 61444).
func (s *Simulator) buildEEC1(data []byte) {
	fill(data, 0xFF)

	data[0] = 0x01 // режим момента: педаль акселератора
	data[1] = uint8(int16(s.state.ThrottlePosition*0.5) + 125)
	data[2] = uint8(int16(s.state.EngineLoad*1.25-25) + 125)
	putU16(data, 3, uint16(s.state.EngineRPM/0.125))
	data[5] = saEngine
	if s.state.EngineRPM > 0 {
		data[6] = 0x03 // запуск завершён
	} else {
		data[6] = 0x00
	}
}

// buildEEC2 — педаль и нагрузка (PGN 61443).
func (s *Simulator) buildEEC2(data []byte) {
	fill(data, 0xFF)

	data[1] = uint8(s.state.ThrottlePosition / 0.4)
	data[2] = uint8(s.state.EngineLoad)
	data[3] = 0x00
	data[5] = 250 // доступный момент 100%
}

// buildET1 — температуры двигателя (PGN 65262).
func (s *Simulator) buildET1(data []byte) {
	fill(data, 0xFF)

	data[0] = uint8(s.state.CoolantTempC + 40)
	data[1] = uint8(s.state.CoolantTempC - 10 + 40) // топливо чуть холоднее
	putU16(data, 2, uint16((s.state.OilTempC+273)/0.03125))
}

// buildEFLP1 — давления и уровни (PGN 65263).
func (s *Simulator) buildEFLP1(data []byte) {
	fill(data, 0xFF)

	data[1] = uint8(300 / 4) // давление подачи топлива, типичное
	data[3] = uint8(s.state.OilPressureKPa / 4)
	data[4] = uint8(100 / 2) // давление в системе охлаждения
}

// buildCCVS — скорость и круиз (PGN 65265).
func (s *Simulator) buildCCVS(data []byte) {
	fill(data, 0xFF)

	data[0] = 0x00
	if s.state.ParkingBrake {
		data[0] |= 0x04
	}
	putU16(data, 1, uint16(s.state.VehicleSpeedKmh*256))
	data[3] = 0x00
	if s.state.CruiseActive {
		data[3] |= 0x01
	}
	if s.state.BrakeSwitch {
		data[3] |= 0x10
	}
	data[5] = s.state.CruiseSetSpeed
}

// buildLFE — расход топлива (PGN 65266).
func (s *Simulator) buildLFE(data []byte) {
	fill(data, 0xFF)

	putU16(data, 0, uint16(s.state.FuelRateLph/0.05))
	data[6] = uint8(s.state.ThrottlePosition / 0.4)
}

// buildIC1 — наддув и впуск (PGN 65270).
func (s *Simulator) buildIC1(data []byte) {
	fill(data, 0xFF)

	data[1] = uint8(s.state.BoostPressureKPa / 2)
	data[2] = uint8(s.state.AmbientTempC + 20 + 40) // впуск теплее окружающего
}

// buildVEP1 — напряжения (PGN 65271).
func (s *Simulator) buildVEP1(data []byte) {
	fill(data, 0xFF)

	putU16(data, 4, uint16(s.state.BatteryVoltage/0.05))
	putU16(data, 6, uint16((s.state.BatteryVoltage-0.3)/0.05))
}

// buildTRF1 — жидкости КПП (PGN 65272).
func (s *Simulator) buildTRF1(data []byte) {
	fill(data, 0xFF)

	data[1] = 187 // уровень масла 75% при 0.4%/бит
	data[3] = uint8(1600 / 16)
	putU16(data, 4, uint16((s.state.TransOilTempC+273)/0.03125))
}

// buildETC2 — передачи (PGN 61445).
func (s *Simulator) buildETC2(data []byte) {
	fill(data, 0xFF)

	data[0] = uint8(int16(s.state.SelectedGear) + 125)
	data[3] = uint8(int16(s.state.CurrentGear) + 125)
}

// buildDD — уровень топлива (PGN 65276).
func (s *Simulator) buildDD(data []byte) {
	fill(data, 0xFF)

	data[0] = uint8(80 / 0.4) // омыватель 80%
	data[1] = uint8(s.state.FuelLevelPct / 0.4)
}

// buildHours — наработка (PGN 65253).
func (s *Simulator) buildHours(data []byte) {
	fill(data, 0xFF)

	raw := uint32(s.state.EngineHours / 0.05)
	data[0] = byte(raw)
	data[1] = byte(raw >> 8)
	data[2] = byte(raw >> 16)
	data[3] = byte(raw >> 24)
}

// buildDM1 — активные коды неисправностей (PGN 65226).
func (s *Simulator) buildDM1(data []byte) {
	fill(data, 0x00)

	if s.state.HasActiveFault {
		data[0] = 0x14 // жёлтая лампа + защита
		data[1] = 0x10 // MIL
		data[2] = byte(s.state.FaultSPN)
		data[3] = byte(s.state.FaultSPN >> 8)
		data[4] = byte(s.state.FaultSPN>>16&0x07)<<5 | s.state.FaultFMI&0x1F
		data[5] = s.state.FaultOccurrence & 0x7F
	} else {
		// Нет кодов: лампы погашены, запись-заполнитель
		data[2] = 0x00
		data[3] = 0x00
		data[4] = 0x00
		data[5] = 0x00
		data[6] = 0xFF
		data[7] = 0xFF
	}
}

func (s *Simulator) sendCAN(pgn uint32, sourceAddress uint8, data []byte) {
	if s.canCb == nil {
		return
	}
	canID := j1939.BuildCANID(pgn, sourceAddress, 6)
	s.canCb(canID, data, s.elapsedMs)
}

// sendJ1708 собирает и отправляет сообщение с контрольной суммой.
func (s *Simulator) sendJ1708(mid uint8, body []byte) {
	if s.j1708Cb == nil {
		return
	}
	s.j1708Cb(j1587.BuildMessage(mid, body), s.elapsedMs)
}

// emitFrames выдаёт кадры, у которых истёк период.
func (s *Simulator) emitFrames() {
	now := s.elapsedMs
	data := make([]byte, 8)

	if now-s.lastEEC1Ms >= s.timing.EEC1IntervalMs {
		s.buildEEC1(data)
		s.sendCAN(j1939.PGNEEC1, saEngine, data)
		s.lastEEC1Ms = now
	}

	if now-s.lastEEC2Ms >= s.timing.EEC2IntervalMs {
		s.buildEEC2(data)
		s.sendCAN(j1939.PGNEEC2, saEngine, data)
		s.lastEEC2Ms = now
	}

	if now-s.lastET1Ms >= s.timing.ET1IntervalMs {
		s.buildET1(data)
		s.sendCAN(j1939.PGNET1, saEngine, data)

		s.buildEFLP1(data)
		s.sendCAN(j1939.PGNEFLP1, saEngine, data)

		s.buildIC1(data)
		s.sendCAN(j1939.PGNIC1, saEngine, data)

		s.buildTRF1(data)
		s.sendCAN(j1939.PGNTRF1, saTransmission, data)

		s.buildHours(data)
		s.sendCAN(j1939.PGNHours, saEngine, data)

		s.lastET1Ms = now
	}

	if now-s.lastCCVSMs >= s.timing.CCVSIntervalMs {
		s.buildCCVS(data)
		s.sendCAN(j1939.PGNCCVS, saEngine, data)
		s.lastCCVSMs = now
	}

	if now-s.lastLFEMs >= s.timing.LFEIntervalMs {
		s.buildLFE(data)
		s.sendCAN(j1939.PGNLFE, saEngine, data)
		s.lastLFEMs = now
	}

	if now-s.lastETC2Ms >= s.timing.ETC2IntervalMs {
		s.buildETC2(data)
		s.sendCAN(j1939.PGNETC2, saTransmission, data)
		s.lastETC2Ms = now
	}

	if now-s.lastVEP1Ms >= s.timing.VEP1IntervalMs {
		s.buildVEP1(data)
		s.sendCAN(j1939.PGNVEP1, saEngine, data)
		s.lastVEP1Ms = now
	}

	if now-s.lastDDMs >= s.timing.DDIntervalMs {
		s.buildDD(data)
		s.sendCAN(j1939.PGNDD, saEngine, data)
		s.lastDDMs = now
	}

	// DM1: раз в секунду при активном коде, раз в 5 секунд без него
	dm1Interval := int64(5000)
	if s.state.HasActiveFault {
		dm1Interval = 1000
	}
	if now-s.lastDM1Ms >= dm1Interval {
		s.buildDM1(data)
		s.sendCAN(j1939.PGNDM1, saEngine, data)
		s.lastDM1Ms = now
	}

	// Дублирующий трафик J1708 от старых блоков, раз в секунду
	if now-s.lastJ1708Ms >= 1000 {
		rpmRaw := uint16(s.state.EngineRPM / 0.25)
		s.sendJ1708(midEngine, []byte{
			j1587.PIDEngineSpeed, byte(rpmRaw), byte(rpmRaw >> 8),
			j1587.PIDCoolantTemp, uint8(s.state.CoolantTempC*9/5 + 32),
			j1587.PIDOilPressure, uint8(s.state.OilPressureKPa / 4),
		})
		// PID 168 однобайтовый, выше 12.75 В упирается в предел шкалы
		battRaw := s.state.BatteryVoltage / 0.05
		if battRaw > 255 {
			battRaw = 255
		}
		s.sendJ1708(midCluster, []byte{
			j1587.PIDRoadSpeed, uint8(s.state.VehicleSpeedKmh / 1.60934 / 0.5),
			j1587.PIDFuelLevel, uint8(s.state.FuelLevelPct / 0.5),
			j1587.PIDBatteryVoltage, uint8(battRaw),
		})
		s.lastJ1708Ms = now
	}
}
