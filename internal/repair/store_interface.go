package repair

// Store defines the repair record collection shared by the gateway and the
// board. Both the map-backed and the badger-backed implementations are safe
// for concurrent use and keep everything in memory.
type Store interface {
	Add(r Record) bool
	Remove(plate string) bool
	Update(plate string, c Changes) bool
	// Modify is Update that also returns the record it stored.
	Modify(plate string, c Changes) (Record, bool)
	Replace(plate string, r Record) bool
	Get(plate string) (Record, bool)
	Snapshot() []Record
	Len() int
}

// Counts tallies records per status.
type Counts struct {
	Completed       int `json:"completed"`
	FinalInspection int `json:"finalInspection"`
	InProgress      int `json:"inProgress"`
}

func (c *Counts) Add(s Status) {
	switch s {
	case StatusCompleted:
		c.Completed++
	case StatusFinalInspection:
		c.FinalInspection++
	case StatusInProgress:
		c.InProgress++
	}
}

func (c Counts) Total() int {
	return c.Completed + c.FinalInspection + c.InProgress
}

// CountRecords tallies a snapshot.
func CountRecords(records []Record) Counts {
	var c Counts
	for _, r := range records {
		c.Add(r.Status)
	}
	return c
}
