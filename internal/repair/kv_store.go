package repair

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/db"
)

const keyPrefix = "repairs/"

// KVStore keeps records as JSON in an in-memory badger database. Each
// operation is one badger transaction, so check-and-set is atomic. Writes
// are serialized so concurrent writers to one plate never conflict; reads
// run against badger snapshots without taking the lock.
// Snapshot order is key (plate) order.
type KVStore struct {
	dbStore *db.Store
	logger  *zap.SugaredLogger

	writeMu sync.Mutex
}

func NewKVStore(dbStore *db.Store, logger *zap.SugaredLogger) *KVStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &KVStore{dbStore: dbStore, logger: logger}
}

func recordKey(plate string) string {
	return keyPrefix + plate
}

func (s *KVStore) Add(r Record) bool {
	if r.Validate() != nil {
		return false
	}
	data, err := json.Marshal(r)
	if err != nil {
		s.logger.Errorf("marshal repair record %s: %v", r.Plate, err)
		return false
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ok, err := s.dbStore.Insert(recordKey(r.Plate), data)
	if err != nil {
		s.logger.Errorf("insert repair record %s: %v", r.Plate, err)
		return false
	}
	return ok
}

func (s *KVStore) Remove(plate string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ok, err := s.dbStore.Delete(recordKey(plate))
	if err != nil {
		s.logger.Errorf("delete repair record %s: %v", plate, err)
		return false
	}
	return ok
}

func (s *KVStore) Update(plate string, c Changes) bool {
	_, ok := s.Modify(plate, c)
	return ok
}

func (s *KVStore) Modify(plate string, c Changes) (Record, bool) {
	if c.Validate() != nil {
		return Record{}, false
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var next Record
	ok, err := s.dbStore.Modify(recordKey(plate), func(old []byte) ([]byte, error) {
		var r Record
		if err := json.Unmarshal(old, &r); err != nil {
			return nil, fmt.Errorf("unmarshal repair record: %w", err)
		}
		next = c.Apply(r)
		return json.Marshal(next)
	})
	if err != nil {
		s.logger.Errorf("update repair record %s: %v", plate, err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}
	return next, true
}

func (s *KVStore) Replace(plate string, r Record) bool {
	return s.Update(plate, ReplaceWith(r))
}

func (s *KVStore) Get(plate string) (Record, bool) {
	data, err := s.dbStore.Get(recordKey(plate))
	if err != nil {
		return Record{}, false
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		s.logger.Errorf("unmarshal repair record %s: %v", plate, err)
		return Record{}, false
	}
	return r, true
}

func (s *KVStore) Snapshot() []Record {
	out := make([]Record, 0)
	err := s.dbStore.Scan(keyPrefix, func(key string, value []byte) error {
		var r Record
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		s.logger.Errorf("snapshot repair records: %v", err)
	}
	return out
}

func (s *KVStore) Len() int {
	n, err := s.dbStore.Count(keyPrefix)
	if err != nil {
		s.logger.Errorf("count repair records: %v", err)
	}
	return n
}
