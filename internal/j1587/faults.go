package j1587

// MaxFaultsPerMessage — предел записей кодов неисправности в одном поле
// PID 194/195.
const MaxFaultsPerMessage = 8

// FaultCode — код неисправности J1587 из PID 194 (активные) или 195
// (исторические). Старший бит первого байта записи различает подсистему
// (SID) и параметр (PID).
type FaultCode struct {
	MID      uint8
	PIDOrSID uint8
	IsSID    bool
	FMI      uint8
	Active   bool
}

// ParseFaultCodes разбирает полезную нагрузку PID 194/195: повторяющиеся
// двухбайтовые записи (идентификатор, FMI в младшем полубайте).
func ParseFaultCodes(mid uint8, data []byte, active bool) []FaultCode {
	if len(data) < 2 {
		return nil
	}

	var faults []FaultCode
	for off := 0; off+2 <= len(data) && len(faults) < MaxFaultsPerMessage; off += 2 {
		idByte := data[off]
		fault := FaultCode{
			MID:    mid,
			FMI:    data[off+1] & 0x0F,
			Active: active,
		}
		if idByte&0x80 != 0 {
			fault.IsSID = true
			fault.PIDOrSID = idByte & 0x7F
		} else {
			fault.PIDOrSID = idByte
		}
		faults = append(faults, fault)
	}

	return faults
}
