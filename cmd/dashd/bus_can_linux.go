//go:build linux

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Размер struct can_frame: id(4) + dlc(1) + выравнивание(3) + data(8).
const canFrameSize = 16

// runCANBus читает кадры из сырого сокета CAN и отдаёт их обработчику.
// Завершается по отмене контекста (сокет закрывается, Read возвращается).
func runCANBus(ctx context.Context, ifaceName string, proc *canProcessor) error {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return fmt.Errorf("создание сокета CAN: %w", err)
	}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("InterfaceByName %q: %w", ifaceName, err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("привязка сокета CAN к %s: %w", ifaceName, err)
	}

	log.Printf("Чтение J1939 с интерфейса %s (ifindex %d)", ifaceName, iface.Index)

	go func() {
		<-ctx.Done()
		unix.Close(fd)
	}()

	frame := make([]byte, canFrameSize)
	for {
		n, err := unix.Read(fd, frame)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("чтение сокета CAN: %w", err)
		}
		if n < canFrameSize {
			continue
		}

		canID := binary.LittleEndian.Uint32(frame[0:4])
		if canID&unix.CAN_EFF_FLAG == 0 {
			// J1939 живёт только в 29-битных идентификаторах
			continue
		}

		dlc := int(frame[4])
		if dlc > 8 {
			dlc = 8
		}
		proc.HandleFrame(canID&unix.CAN_EFF_MASK, frame[8:8+dlc], time.Now().UnixMilli())
	}
}
