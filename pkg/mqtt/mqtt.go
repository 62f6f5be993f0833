// Package mqtt отправляет снимки параметров и коды неисправностей брокеру
// и принимает команды сервера из командного топика.
package mqtt

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/serebryakov7/truck-dash/common"
)

const (
	DefaultUpdateInterval = 10 * time.Second
	DefaultBroker         = "tcp://localhost:1883"
	DefaultClientID       = "truck-dash"
	DefaultTopic          = "vehicle/data"
)

// Config содержит настройки для MQTT клиента
type Config struct {
	Broker         string
	ClientID       string
	Topic          string
	DTCTopic       string // Топик для отправки DTC
	CommandTopic   string // Топик для получения команд
	UpdateInterval time.Duration
}

// Client представляет MQTT клиент для отправки данных и получения команд
type Client struct {
	config   Config
	client   mqtt.Client
	stopChan chan struct{}
	// dataSource возвращает текущий снимок таблицы параметров; nil — данных нет
	dataSource func() *common.Snapshot
	// commandHandler - функция обратного вызова для обработки команд
	commandHandler func(cmd common.ServerCommand) error
}

// NewClient создает новый MQTT клиент
func NewClient(config Config, dataSource func() *common.Snapshot, cmdHandler func(cmd common.ServerCommand) error) *Client {
	return &Client{
		config:         config,
		stopChan:       make(chan struct{}),
		dataSource:     dataSource,
		commandHandler: cmdHandler,
	}
}

// Connect устанавливает соединение с MQTT брокером
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("Подключено к MQTT брокеру")
		// Подписываемся на топик команд после успешного подключения
		c.subscribeToCommands()
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("Соединение с MQTT брокером потеряно: %v", err)
	})

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

// StartPublishing начинает периодическую отправку снимков
func (c *Client) StartPublishing() {
	log.Printf("Начало публикации данных в MQTT на топик %s с интервалом %v", c.config.Topic, c.config.UpdateInterval)

	go func() {
		ticker := time.NewTicker(c.config.UpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.publishSnapshot()
			}
		}
	}()
}

// StopPublishing останавливает публикацию данных
func (c *Client) StopPublishing() {
	close(c.stopChan)
}

// Disconnect отключается от MQTT брокера
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// publishSnapshot публикует снимок параметров в MQTT
func (c *Client) publishSnapshot() {
	snapshot := c.dataSource()
	if snapshot == nil {
		log.Println("Нет данных для публикации")
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Ошибка сериализации данных: %v", err)
		return
	}

	token := c.client.Publish(c.config.Topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		log.Printf("Ошибка отправки данных в MQTT: %v", token.Error())
	} else {
		log.Printf("Данные отправлены в MQTT (%d байт, %d параметров)", len(data), len(snapshot.Params))
	}
}

// subscribeToCommands подписывается на топик команд от сервера.
func (c *Client) subscribeToCommands() {
	commandTopic := c.config.CommandTopic
	if commandTopic == "" {
		log.Println("Топик для команд не указан, подписка не будет выполнена.")
		return
	}

	token := c.client.Subscribe(commandTopic, 1, c.handleIncomingCommand)
	go func() {
		<-token.Done()
		if token.Error() != nil {
			log.Printf("Ошибка подписки на топик команд %s: %v", commandTopic, token.Error())
		} else {
			log.Printf("Успешно подписан на топик команд: %s", commandTopic)
		}
	}()
}

// handleIncomingCommand обрабатывает входящие сообщения из топика команд.
func (c *Client) handleIncomingCommand(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Получена команда из топика %s: %s", msg.Topic(), string(msg.Payload()))

	var cmd common.ServerCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("Ошибка десериализации команды: %v. Сообщение: %s", err, string(msg.Payload()))
		return
	}

	if c.commandHandler != nil {
		if err := c.commandHandler(cmd); err != nil {
			log.Printf("Ошибка обработки команды %s: %v", cmd.Type, err)
		}
	} else {
		log.Println("Обработчик команд не настроен.")
	}
}

// PublishDTC публикует один DTC в MQTT
func (c *Client) PublishDTC(dtc common.DTCCode) {
	if !c.client.IsConnected() {
		log.Println("MQTT клиент не подключен, DTC не будет отправлен")
		return
	}

	data, err := json.Marshal(dtc)
	if err != nil {
		log.Printf("Ошибка сериализации DTC: %v", err)
		return
	}

	dtcTopic := c.config.DTCTopic
	if dtcTopic == "" {
		dtcTopic = c.config.Topic + "/dtc" // Топик по умолчанию, если не задан
	}

	token := c.client.Publish(dtcTopic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		log.Printf("Ошибка отправки DTC в MQTT: %v", token.Error())
	} else {
		log.Printf("DTC %d отправлен в MQTT на топик %s (%d байт)", dtc.SPN, dtcTopic, len(data))
	}
}
