// Package seed loads fixture repair jobs into a store once per process.
package seed

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/repairboard/kioskd/internal/repair"
)

// Entry is the file form of a record. Times are "HH:mm:ss" or "HH:mm".
type Entry struct {
	Plate           string `yaml:"licensePlateNumber"`
	Model           string `yaml:"carModel"`
	Status          string `yaml:"repairStatus"`
	RequestedTime   string `yaml:"requestedTime"`
	EstimatedFinish string `yaml:"estimatedFinishTime"`
}

type File struct {
	Records []Entry `yaml:"records"`
}

// Record validates e and converts it.
func (e Entry) Record() (repair.Record, error) {
	status, err := repair.ParseStatus(e.Status)
	if err != nil {
		return repair.Record{}, err
	}
	requested, err := repair.ParseTimeOfDay(e.RequestedTime)
	if err != nil {
		return repair.Record{}, &repair.ValidationError{Field: "requestedTime", Value: e.RequestedTime, Err: err}
	}
	finish, err := repair.ParseTimeOfDay(e.EstimatedFinish)
	if err != nil {
		return repair.Record{}, &repair.ValidationError{Field: "estimatedFinishTime", Value: e.EstimatedFinish, Err: err}
	}
	r := repair.Record{
		Plate:           e.Plate,
		Model:           e.Model,
		Status:          status,
		RequestedTime:   requested,
		EstimatedFinish: finish,
	}
	return r, r.Validate()
}

// Parse decodes a YAML seed file.
func Parse(data []byte) ([]repair.Record, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	records := make([]repair.Record, 0, len(f.Records))
	for i, e := range f.Records {
		r, err := e.Record()
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func LoadFile(path string) ([]repair.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Defaults is the demo job list shown on a freshly started board.
func Defaults() []repair.Record {
	job := func(status repair.Status, plate, model string, requested, finish string) repair.Record {
		r := repair.Record{Plate: plate, Model: model, Status: status}
		r.RequestedTime, _ = repair.ParseTimeOfDay(requested)
		r.EstimatedFinish, _ = repair.ParseTimeOfDay(finish)
		return r
	}
	return []repair.Record{
		job(repair.StatusInProgress, "001가111", "Sonata", "08:30:00", "10:30:00"),
		job(repair.StatusInProgress, "002나222", "Avante MD", "09:15:00", "12:15:00"),
		job(repair.StatusFinalInspection, "003다333", "I520", "10:00:00", "13:30:00"),
		job(repair.StatusCompleted, "004라444", "Morning", "07:45:00", ""),
		job(repair.StatusInProgress, "005마555", "K3", "11:20:00", "15:30:00"),
		job(repair.StatusInProgress, "006바677", "Tucson", "08:00:00", "09:45:00"),
		job(repair.StatusFinalInspection, "007사777", "Grandeur", "09:30:00", "11:20:00"),
		job(repair.StatusInProgress, "008아888", "Spark", "10:45:00", "14:30:00"),
		job(repair.StatusInProgress, "009자999", "Ray", "12:00:00", "15:30:00"),
		job(repair.StatusCompleted, "0010차100", "Race", "06:30:00", ""),
	}
}

// Seeder adds its records to a store the first time Seed is called.
type Seeder struct {
	store   repair.Store
	records []repair.Record
	logger  *zap.SugaredLogger

	once  sync.Once
	added int
}

func New(store repair.Store, records []repair.Record, logger *zap.SugaredLogger) *Seeder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Seeder{store: store, records: records, logger: logger}
}

// Seed adds every record whose plate is not already present. Only the first
// call touches the store; every call reports how many records the first
// call added.
func (s *Seeder) Seed() int {
	s.once.Do(func() {
		for _, r := range s.records {
			if s.store.Add(r) {
				s.added++
				continue
			}
			s.logger.Debugf("Seed record %s skipped (already present or invalid)", r.Plate)
		}
		s.logger.Infof("Seeded %d of %d repair jobs", s.added, len(s.records))
	})
	return s.added
}

// Hook adapts Seed to the board's rotation hook.
func (s *Seeder) Hook() func() {
	return func() { s.Seed() }
}
