// Package storage хранит накопительную статистику и историю кодов
// неисправностей в bbolt-базе: счётчики поездок, статистику за весь срок
// службы, кольцо последних DTC и пользовательские настройки. Значения
// сериализуются в JSON, каждому разделу — свой bucket.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketTripA      = "trip_a"
	bucketTripB      = "trip_b"
	bucketLifetime   = "lifetime"
	bucketDTCHistory = "dtc_history"
	bucketDTCSeen    = "dtc_seen"
	bucketSettings   = "settings"

	// MaxDTCHistory — глубина кольца истории кодов.
	MaxDTCHistory = 20
)

// Store — открытая база статистики.
type Store struct {
	db *bolt.DB
}

// Open открывает (или создаёт) bbolt-базу и гарантирует наличие bucket'ов.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("открытие базы %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{
			bucketTripA, bucketTripB, bucketLifetime,
			bucketDTCHistory, bucketDTCSeen, bucketSettings,
		} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("создание bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error { return s.db.Close() }

// TripData — накопленные показатели одной поездки.
type TripData struct {
	StartTime  int64   `json:"start_time"` // Unix
	DurationS  int64   `json:"duration_s"`
	DistanceKm float64 `json:"distance_km"`
	FuelL      float64 `json:"fuel_l"`
}

// AvgSpeedKmh возвращает среднюю скорость поездки.
func (t TripData) AvgSpeedKmh() float64 {
	if t.DurationS == 0 {
		return 0
	}
	return t.DistanceKm / (float64(t.DurationS) / 3600)
}

// EconomyKmL возвращает средний расход поездки в км/л.
func (t TripData) EconomyKmL() float64 {
	if t.FuelL == 0 {
		return 0
	}
	return t.DistanceKm / t.FuelL
}

func tripBucket(name string) (string, error) {
	switch name {
	case "a":
		return bucketTripA, nil
	case "b":
		return bucketTripB, nil
	}
	return "", fmt.Errorf("неизвестный счётчик поездки: %q", name)
}

// SaveTrip сохраняет счётчик поездки "a" или "b".
func (s *Store) SaveTrip(name string, trip TripData) error {
	bucket, err := tripBucket(name)
	if err != nil {
		return err
	}
	return s.putJSON(bucket, "current", trip)
}

// LoadTrip читает счётчик поездки. false — записей ещё нет.
func (s *Store) LoadTrip(name string) (TripData, bool, error) {
	bucket, err := tripBucket(name)
	if err != nil {
		return TripData{}, false, err
	}
	var trip TripData
	found, err := s.getJSON(bucket, "current", &trip)
	return trip, found, err
}

// ResetTrip обнуляет счётчик поездки и запускает новый отсчёт.
func (s *Store) ResetTrip(name string, now time.Time) error {
	return s.SaveTrip(name, TripData{StartTime: now.Unix()})
}

// LifetimeStats — статистика за весь срок службы.
type LifetimeStats struct {
	OdometerKm      float64 `json:"odometer_km"`
	TotalFuelL      float64 `json:"total_fuel_l"`
	EngineHours     float64 `json:"engine_hours"`
	BootCount       uint32  `json:"boot_count"`
	BestEconomyKmL  float64 `json:"best_economy_km_l"`
	WorstEconomyKmL float64 `json:"worst_economy_km_l"`
}

// SaveLifetime сохраняет статистику за срок службы.
func (s *Store) SaveLifetime(stats LifetimeStats) error {
	return s.putJSON(bucketLifetime, "stats", stats)
}

// LoadLifetime читает статистику за срок службы. false — база пустая.
func (s *Store) LoadLifetime() (LifetimeStats, bool, error) {
	var stats LifetimeStats
	found, err := s.getJSON(bucketLifetime, "stats", &stats)
	return stats, found, err
}

// IncrementBootCount увеличивает счётчик запусков и возвращает новое значение.
func (s *Store) IncrementBootCount() (uint32, error) {
	stats, _, err := s.LoadLifetime()
	if err != nil {
		return 0, err
	}
	stats.BootCount++
	if err := s.SaveLifetime(stats); err != nil {
		return 0, err
	}
	return stats.BootCount, nil
}

// SaveSetting сохраняет пользовательскую настройку по ключу.
func (s *Store) SaveSetting(key string, value any) error {
	return s.putJSON(bucketSettings, key, value)
}

// LoadSetting читает настройку. false — ключа нет.
func (s *Store) LoadSetting(key string, value any) (bool, error) {
	return s.getJSON(bucketSettings, key, value)
}

func (s *Store) putJSON(bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

func (s *Store) getJSON(bucket, key string, value any) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(bucket)).Get([]byte(key)); raw != nil {
			data = append(data, raw...)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("разбор %s/%s: %w", bucket, key, err)
	}
	return true, nil
}
