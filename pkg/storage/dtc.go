package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

// DTCRecord — одна запись в истории кодов неисправностей.
type DTCRecord struct {
	SPN       uint32 `json:"spn"`
	FMI       uint8  `json:"fmi"`
	FirstSeen int64  `json:"first_seen"` // Unix
	LastSeen  int64  `json:"last_seen"`
	Count     uint32 `json:"count"`
}

func dtcKey(spn uint32, fmi uint8) []byte {
	return []byte(fmt.Sprintf("%d:%d", spn, fmi))
}

// IsNewDTC проверяет, встречался ли ранее код spn/fmi.
// Возвращает true и добавляет код, если он новый.
func (s *Store) IsNewDTC(spn uint32, fmi uint8) (bool, error) {
	key := dtcKey(spn, fmi)
	var isNew bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDTCSeen))
		if b.Get(key) == nil {
			// Ключа нет — это новый код
			isNew = true
			return b.Put(key, []byte{1})
		}
		// Уже был — игнорируем
		isNew = false
		return nil
	})
	return isNew, err
}

// RemoveDTC удаляет код spn/fmi из списка виденных (например, когда код
// перестал быть активным).
func (s *Store) RemoveDTC(spn uint32, fmi uint8) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDTCSeen)).Delete(dtcKey(spn, fmi))
	})
}

// ClearSeenDTCs сбрасывает все виденные коды (после команды clear_dtcs).
func (s *Store) ClearSeenDTCs() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketDTCSeen)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketDTCSeen))
		return err
	})
}

// RecordDTC заносит код в историю: новая запись или обновление счётчика
// и времени последнего появления. История ограничена MaxDTCHistory
// записями, вытесняется самая старая по LastSeen.
func (s *Store) RecordDTC(spn uint32, fmi uint8, nowUnix int64) error {
	key := dtcKey(spn, fmi)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDTCHistory))

		var rec DTCRecord
		if raw := b.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("разбор записи истории DTC: %w", err)
			}
			rec.Count++
			rec.LastSeen = nowUnix
		} else {
			rec = DTCRecord{SPN: spn, FMI: fmi, FirstSeen: nowUnix, LastSeen: nowUnix, Count: 1}

			// Переполнение кольца: выбрасываем самую старую запись
			if b.Stats().KeyN >= MaxDTCHistory {
				var oldestKey []byte
				oldestSeen := int64(0)
				err := b.ForEach(func(k, v []byte) error {
					var r DTCRecord
					if err := json.Unmarshal(v, &r); err != nil {
						return err
					}
					if oldestKey == nil || r.LastSeen < oldestSeen {
						oldestKey = append([]byte{}, k...)
						oldestSeen = r.LastSeen
					}
					return nil
				})
				if err != nil {
					return err
				}
				if oldestKey != nil {
					if err := b.Delete(oldestKey); err != nil {
						return err
					}
				}
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// DTCHistory возвращает историю кодов, свежие первыми.
func (s *Store) DTCHistory() ([]DTCRecord, error) {
	var out []DTCRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDTCHistory)).ForEach(func(k, v []byte) error {
			var rec DTCRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("разбор записи истории DTC: %w", err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen > out[j].LastSeen })
	return out, nil
}

// ClearDTCHistory очищает историю кодов.
func (s *Store) ClearDTCHistory() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketDTCHistory)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketDTCHistory))
		return err
	})
}
