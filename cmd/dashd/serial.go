package main

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"

	"github.com/serebryakov7/truck-dash/common"
	"github.com/serebryakov7/truck-dash/internal/datamgr"
	"github.com/serebryakov7/truck-dash/internal/j1587"
)

// j1708Processor раскладывает разобранные сообщения J1587 по таблице
// параметров и вылавливает коды неисправностей (PID 194/195).
type j1708Processor struct {
	dm      *datamgr.Manager
	dtcChan chan<- common.DTCCode
	source  datamgr.Source
}

func newJ1708Processor(dm *datamgr.Manager, dtcChan chan<- common.DTCCode, source datamgr.Source) *j1708Processor {
	return &j1708Processor{dm: dm, dtcChan: dtcChan, source: source}
}

// HandleMessage — единая точка входа для сообщений с порта и от симулятора.
func (p *j1708Processor) HandleMessage(msg j1587.Message, tsMs int64) {
	for i := 0; i < int(msg.ParamCount); i++ {
		param := &msg.Params[i]
		if !param.Valid {
			continue
		}
		data := param.Data[:param.DataLength]

		switch param.PID {
		case j1587.PIDRoadSpeed:
			if v, ok := j1587.DecodeRoadSpeed(data); ok {
				p.dm.Update(datamgr.ParamVehicleSpeed, v, p.source, tsMs)
			}
		case j1587.PIDEngineSpeed:
			if v, ok := j1587.DecodeEngineRPM(data); ok {
				p.dm.Update(datamgr.ParamEngineSpeed, v, p.source, tsMs)
			}
		case j1587.PIDCoolantTemp:
			if v, ok := j1587.DecodeCoolantTemp(data); ok {
				p.dm.Update(datamgr.ParamCoolantTemp, v, p.source, tsMs)
			}
		case j1587.PIDOilPressure:
			if v, ok := j1587.DecodeOilPressure(data); ok {
				p.dm.Update(datamgr.ParamOilPressure, v, p.source, tsMs)
			}
		case j1587.PIDTransOilTemp:
			if v, ok := j1587.DecodeTransOilTemp(data); ok {
				p.dm.Update(datamgr.ParamTransOilTemp, v, p.source, tsMs)
			}
		case j1587.PIDBatteryVoltage:
			if v, ok := j1587.DecodeBatteryVoltage(data); ok {
				p.dm.Update(datamgr.ParamBatteryVoltage, v, p.source, tsMs)
			}
		case j1587.PIDFuelLevel:
			if v, ok := j1587.DecodeFuelLevel(data); ok {
				p.dm.Update(datamgr.ParamFuelLevel1, v, p.source, tsMs)
			}
		case j1587.PIDActiveDTC, j1587.PIDHistoricDTC:
			p.handleFaults(msg.MID, param.PID, data, tsMs)
		}
	}
}

func (p *j1708Processor) handleFaults(mid, pid uint8, data []byte, tsMs int64) {
	faults := j1587.ParseFaultCodes(mid, data, pid == j1587.PIDActiveDTC)
	for _, f := range faults {
		if !f.Active {
			// Исторические коды не дублируем на сервер
			continue
		}
		code := common.DTCCode{
			MID:       int(f.MID),
			PID:       int(f.PIDOrSID),
			FMI:       int(f.FMI),
			Timestamp: time.Now().UnixNano(),
		}
		select {
		case p.dtcChan <- code:
		default:
			log.Printf("Канал DTC полон, код J1587 MID %d PID/SID %d пропущен", f.MID, f.PIDOrSID)
		}
	}
}

// runSerial читает байты из последовательного порта и прогоняет их через
// приёмник J1587. Завершается по отмене контекста.
func runSerial(ctx context.Context, portName string, baud int, proc *j1708Processor) error {
	portConfig := &serial.Config{
		Name:        portName,
		Baud:        baud,
		ReadTimeout: time.Millisecond * 100,
	}
	port, err := serial.OpenPort(portConfig)
	if err != nil {
		return err
	}
	defer port.Close()

	log.Printf("Чтение J1708 с порта %s (%d бод)", portName, baud)

	recv := j1587.NewReceiver()
	buf := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := port.Read(buf)
		if err != nil && err != io.EOF {
			log.Printf("Ошибка чтения порта: %v", err)
			continue
		}

		now := time.Now().UnixMilli()
		for i := 0; i < n; i++ {
			if recv.Feed(buf[i], now) {
				// Приёмник держит собранное сообщение: забираем его и
				// подаём непотреблённый байт заново
				if msg, ok := recv.GetMessage(); ok {
					proc.HandleMessage(msg, now)
				}
				recv.Feed(buf[i], now)
			}
		}
	}
}
