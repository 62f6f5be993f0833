package main

import (
	"log"
	"time"

	"github.com/serebryakov7/truck-dash/common"
	"github.com/serebryakov7/truck-dash/internal/datamgr"
	"github.com/serebryakov7/truck-dash/internal/j1939"
)

// canProcessor разбирает кадры CAN и раскладывает значения по таблице
// параметров. Многокадровые сообщения проходят через сборщик BAM.
type canProcessor struct {
	dm      *datamgr.Manager
	reasm   *j1939.Reassembler
	dtcChan chan<- common.DTCCode
	source  datamgr.Source

	lastExpireMs int64
}

func newCANProcessor(dm *datamgr.Manager, dtcChan chan<- common.DTCCode, source datamgr.Source) *canProcessor {
	return &canProcessor{
		dm:      dm,
		reasm:   j1939.NewReassembler(),
		dtcChan: dtcChan,
		source:  source,
	}
}

// HandleFrame — единая точка входа для кадров с шины и от симулятора.
func (p *canProcessor) HandleFrame(canID uint32, data []byte, tsMs int64) {
	msg, ok := j1939.ParseFrame(canID, data, tsMs)
	if !ok {
		return
	}

	// Уборка зависших сессий сборщика, не чаще раза в период таймаута
	if tsMs-p.lastExpireMs >= j1939.TPTimeoutMs {
		p.reasm.Expire(tsMs)
		p.lastExpireMs = tsMs
	}

	switch msg.PGN {
	case j1939.PGNTPCM:
		p.reasm.HandleCM(msg)
	case j1939.PGNTPDT:
		if p.reasm.HandleDT(msg) {
			if targetPGN, payload, ok := p.reasm.GetData(msg.SourceAddress); ok {
				p.handleAssembled(targetPGN, msg.SourceAddress, payload, tsMs)
			}
		}
	case j1939.PGNDM1:
		p.handleDM1(msg.SourceAddress, msg.Data[:msg.DataLength], tsMs)
	default:
		p.decodePGN(msg, tsMs)
	}
}

// handleAssembled обрабатывает сообщение, собранное из TP-пакетов.
func (p *canProcessor) handleAssembled(targetPGN uint32, sa uint8, payload []byte, tsMs int64) {
	switch targetPGN {
	case j1939.PGNDM1:
		p.handleDM1(sa, payload, tsMs)
	case j1939.PGNDM2:
		// Ранее активные коды: в таблицу активных не попадают
		if _, dtcs, ok := j1939.DecodeDM1(payload); ok && len(dtcs) > 0 {
			log.Printf("DM2 от SA 0x%02X: %d ранее активных кодов", sa, len(dtcs))
		}
	default:
		log.Printf("Собрано TP-сообщение PGN %d (%s) от SA 0x%02X, %d байт — обработчика нет",
			targetPGN, j1939.PGNName(targetPGN), sa, len(payload))
	}
}

func (p *canProcessor) handleDM1(sa uint8, payload []byte, tsMs int64) {
	lamps, dtcs, ok := j1939.DecodeDM1(payload)
	if !ok {
		return
	}

	p.dm.Update(datamgr.ParamActiveDTCCount, float64(len(dtcs)), p.source, tsMs)
	mil := 0.0
	if lamps.Malfunction {
		mil = 1
	}
	p.dm.Update(datamgr.ParamMILStatus, mil, p.source, tsMs)

	for _, dtc := range dtcs {
		code := common.DTCCode{
			MID:       int(sa),
			SPN:       int(dtc.SPN),
			FMI:       int(dtc.FMI),
			OC:        int(dtc.OC),
			Timestamp: time.Now().UnixNano(),
		}
		select {
		case p.dtcChan <- code:
		default:
			log.Printf("Канал DTC полон, код SPN %d FMI %d пропущен", dtc.SPN, dtc.FMI)
		}
	}
}

// decodePGN применяет подходящий декодер и обновляет таблицу параметров.
func (p *canProcessor) decodePGN(msg j1939.Message, tsMs int64) {
	data := msg.Data[:msg.DataLength]

	set := func(id datamgr.ParamID, value float64, ok bool) {
		if ok {
			p.dm.Update(id, value, p.source, tsMs)
		}
	}

	switch msg.PGN {
	case j1939.PGNEEC1:
		v, ok := j1939.DecodeEngineSpeed(data)
		set(datamgr.ParamEngineSpeed, v, ok)
	case j1939.PGNEEC2:
		v, ok := j1939.DecodeThrottlePosition(data)
		set(datamgr.ParamThrottlePosition, v, ok)
	case j1939.PGNET1:
		v, ok := j1939.DecodeCoolantTemp(data)
		set(datamgr.ParamCoolantTemp, v, ok)
	case j1939.PGNEFLP1:
		v, ok := j1939.DecodeOilPressure(data)
		set(datamgr.ParamOilPressure, v, ok)
	case j1939.PGNCCVS:
		v, ok := j1939.DecodeVehicleSpeed(data)
		set(datamgr.ParamVehicleSpeed, v, ok)
	case j1939.PGNLFE:
		v, ok := j1939.DecodeFuelRate(data)
		set(datamgr.ParamFuelRate, v, ok)
	case j1939.PGNIC1:
		v, ok := j1939.DecodeBoostPressure(data)
		set(datamgr.ParamBoostPressure, v, ok)
	case j1939.PGNVEP1:
		v, ok := j1939.DecodeBatteryVoltage(data)
		set(datamgr.ParamBatteryVoltage, v, ok)
	case j1939.PGNTRF1:
		v, ok := j1939.DecodeTransOilTemp(data)
		set(datamgr.ParamTransOilTemp, v, ok)
	case j1939.PGNETC2:
		if gear, ok := j1939.DecodeCurrentGear(data); ok {
			p.dm.Update(datamgr.ParamCurrentGear, float64(gear), p.source, tsMs)
		}
	case j1939.PGNDD:
		v, ok := j1939.DecodeFuelLevel(data)
		set(datamgr.ParamFuelLevel1, v, ok)
	case j1939.PGNHours:
		v, ok := j1939.DecodeEngineHours(data)
		set(datamgr.ParamEngineHours, v, ok)
	case j1939.PGNAMB:
		v, ok := j1939.DecodeAmbientTemp(data)
		set(datamgr.ParamAmbientTemp, v, ok)
	}
}
