//go:build !linux

package main

import (
	"context"
	"fmt"
)

// На платформах без SocketCAN шина J1939 доступна только через -sim.
func runCANBus(ctx context.Context, ifaceName string, proc *canProcessor) error {
	return fmt.Errorf("чтение CAN-интерфейса %s поддерживается только на linux", ifaceName)
}
