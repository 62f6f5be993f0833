// dashd — демон панели приборов грузовика: читает шины J1939 (CAN) и
// J1708/J1587 (последовательный порт), ведёт таблицу параметров, считает
// статистику поездок, публикует данные в MQTT и раздаёт живую ленту по
// websocket. Флаг -sim заменяет обе шины встроенным симулятором.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/serebryakov7/truck-dash/common"
	"github.com/serebryakov7/truck-dash/internal/datamgr"
	"github.com/serebryakov7/truck-dash/internal/j1587"
	"github.com/serebryakov7/truck-dash/internal/sim"
	"github.com/serebryakov7/truck-dash/internal/watchlist"
	"github.com/serebryakov7/truck-dash/pkg/mqtt"
	"github.com/serebryakov7/truck-dash/pkg/storage"
	"github.com/serebryakov7/truck-dash/pkg/ws"
)

// Настройки по умолчанию
const (
	defaultPortName         = "/dev/ttyUSB0"
	defaultBaudRate         = 9600
	defaultCanInterface     = "can0"
	defaultMqttBroker       = "tcp://localhost:1883"
	defaultMqttTopic        = "vehicle/data"
	defaultMqttDTCTopic     = "vehicle/dtc"
	defaultMqttCommandTopic = "vehicle/command"
	defaultUpdateInterval   = 10 * time.Second
	defaultSaveInterval     = 30 * time.Second
	defaultDbPath           = "dash.db"
	defaultWsAddr           = ":8080"
	defaultScenario         = "idle"
)

var (
	portName         = flag.String("port", defaultPortName, "Последовательный порт J1708")
	baudRate         = flag.Int("baud", defaultBaudRate, "Скорость передачи данных в бодах")
	canInterface     = flag.String("can-if", defaultCanInterface, "Имя CAN-интерфейса (например, can0, vcan0)")
	mqttBroker       = flag.String("broker", defaultMqttBroker, "MQTT брокер")
	mqttTopic        = flag.String("topic", defaultMqttTopic, "MQTT топик для основных данных")
	mqttDTCTopic     = flag.String("dtc_topic", defaultMqttDTCTopic, "MQTT топик для кодов неисправностей (DTC)")
	mqttCommandTopic = flag.String("command_topic", defaultMqttCommandTopic, "MQTT топик для команд")
	updateInterval   = flag.Duration("interval", defaultUpdateInterval, "Интервал публикации снимков в MQTT")
	saveInterval     = flag.Duration("save-interval", defaultSaveInterval, "Интервал сохранения статистики")
	dbPath           = flag.String("dbpath", defaultDbPath, "Путь к файлу bbolt-базы статистики")
	wsAddr           = flag.String("ws-addr", defaultWsAddr, "Адрес websocket-сервера")
	simMode          = flag.Bool("sim", false, "Режим симуляции вместо реальных шин")
	simScenario      = flag.String("scenario", defaultScenario, "Сценарий симуляции: idle, highway, city, cold-start, acceleration, fault")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("Запуск dashd...")

	store, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatalf("Ошибка открытия базы статистики %s: %v", *dbPath, err)
	}
	defer store.Close()

	bootCount, err := store.IncrementBootCount()
	if err != nil {
		log.Printf("Ошибка обновления счётчика запусков: %v", err)
	} else {
		log.Printf("Запуск номер %d", bootCount)
	}

	dm := datamgr.New()
	wl := watchlist.New(dm)
	wl.SetupDefaults()

	hub := ws.NewHub()
	dtcChan := make(chan common.DTCCode, 10)
	events := make(chan paramEvent, 256)
	if !registerEventForwarder(dm, events) {
		log.Fatal("Не удалось зарегистрировать callback таблицы параметров")
	}

	stats, err := newTripStats(store, dm)
	if err != nil {
		log.Fatalf("Ошибка загрузки статистики: %v", err)
	}
	resetTripCh := make(chan string, 1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	source := datamgr.SourceJ1939
	serialSource := datamgr.SourceJ1708
	if *simMode {
		source = datamgr.SourceSimulated
		serialSource = datamgr.SourceSimulated
	}
	canProc := newCANProcessor(dm, dtcChan, source)
	serialProc := newJ1708Processor(dm, dtcChan, serialSource)

	// Симулятором владеет горутина runSim; команды к нему идут через канал
	var simCmdCh chan func(*sim.Simulator)
	if *simMode {
		scenario, ok := sim.ParseScenario(*simScenario)
		if !ok {
			log.Fatalf("Неизвестный сценарий симуляции: %q", *simScenario)
		}
		simCmdCh = make(chan func(*sim.Simulator), 4)
		simulator := sim.New(
			func(canID uint32, data []byte, _ int64) {
				canProc.HandleFrame(canID, data, time.Now().UnixMilli())
			},
			func(raw []byte, _ int64) {
				if msg, ok := j1587.ParseMessage(raw); ok {
					serialProc.HandleMessage(msg, time.Now().UnixMilli())
				}
			},
			time.Now().UnixNano(),
		)
		simulator.SetScenario(scenario)
		log.Printf("Режим симуляции, сценарий %q", *simScenario)
		g.Go(func() error { return runSim(ctx, simulator, simCmdCh) })
	} else {
		g.Go(func() error { return runCANBus(ctx, *canInterface, canProc) })
		g.Go(func() error { return runSerial(ctx, *portName, *baudRate, serialProc) })
	}

	mqttConfig := mqtt.Config{
		Broker:         *mqttBroker,
		ClientID:       "truck-dash",
		Topic:          *mqttTopic,
		DTCTopic:       *mqttDTCTopic,
		CommandTopic:   *mqttCommandTopic,
		UpdateInterval: *updateInterval,
	}
	mqttClient := mqtt.NewClient(mqttConfig,
		func() *common.Snapshot {
			return buildSnapshot(dm)
		},
		func(cmd common.ServerCommand) error {
			return handleCommand(cmd, store, simCmdCh, resetTripCh)
		})
	if err := mqttClient.Connect(); err != nil {
		log.Fatalf("Ошибка подключения к MQTT: %v", err)
	}
	defer mqttClient.Disconnect()

	mqttClient.StartPublishing()
	defer mqttClient.StopPublishing()

	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return runWsServer(ctx, *wsAddr, hub) })
	g.Go(func() error { return runEvents(ctx, dm, hub, events) })
	g.Go(func() error { return runDTCs(ctx, store, mqttClient, hub, dtcChan) })
	g.Go(func() error { return runStats(ctx, stats, *saveInterval, resetTripCh) })
	g.Go(func() error { return runWatchList(ctx, wl) })

	log.Println("Сбор и отправка данных запущены. Нажмите Ctrl+C для завершения.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Завершение с ошибкой: %v", err)
	}
	log.Println("Завершение работы dashd...")
}

// runSim крутит симулятор с шагом 10 мс реального времени и применяет
// команды из канала, не отдавая владение симулятором другим горутинам.
func runSim(ctx context.Context, s *sim.Simulator, cmdCh <-chan func(*sim.Simulator)) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-cmdCh:
			cmd(s)
		case now := <-ticker.C:
			s.Update(now.Sub(last).Milliseconds())
			last = now
		}
	}
}

// runWsServer поднимает http-сервер живой ленты.
func runWsServer(ctx context.Context, addr string, hub *ws.Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Websocket-сервер слушает %s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// handleCommand выполняет команду, пришедшую из MQTT.
func handleCommand(cmd common.ServerCommand, store *storage.Store, simCmdCh chan<- func(*sim.Simulator), resetTripCh chan<- string) error {
	log.Printf("Получена команда: %+v", cmd)

	switch cmd.Type {
	case common.CommandTypeClearDTCs:
		if err := store.ClearSeenDTCs(); err != nil {
			return fmt.Errorf("ошибка очистки хранилища DTC: %w", err)
		}
		if simCmdCh != nil {
			simCmdCh <- func(s *sim.Simulator) { s.ClearFault() }
		}
		log.Println("Хранилище дедупликации DTC успешно очищено.")
		return nil

	case common.CommandTypeSetScenario:
		if simCmdCh == nil {
			return fmt.Errorf("команда set_scenario доступна только в режиме -sim")
		}
		if cmd.Params.Scenario == nil {
			return fmt.Errorf("команда set_scenario без имени сценария")
		}
		scenario, ok := sim.ParseScenario(*cmd.Params.Scenario)
		if !ok {
			return fmt.Errorf("неизвестный сценарий: %q", *cmd.Params.Scenario)
		}
		name := *cmd.Params.Scenario
		simCmdCh <- func(s *sim.Simulator) {
			s.SetScenario(scenario)
			log.Printf("Сценарий симуляции переключён на %q", name)
		}
		return nil

	case common.CommandTypeResetTrip:
		name := "a"
		if cmd.Params.Trip != nil {
			name = *cmd.Params.Trip
		}
		select {
		case resetTripCh <- name:
		default:
			return fmt.Errorf("сброс счётчика уже выполняется")
		}
		return nil

	default:
		log.Printf("Неизвестный тип команды: %s. Команда обработана успешно (действие по умолчанию).", cmd.Type)
		return nil
	}
}
