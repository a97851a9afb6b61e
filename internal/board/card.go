package board

import "github.com/repairboard/kioskd/internal/repair"

const (
	InfoComplete    = "complete"
	InfoUnscheduled = "unscheduled"
)

// Card is the presentation-neutral content of one board column.
type Card struct {
	Rank        int           `json:"rank"`
	Status      repair.Status `json:"status"`
	StatusClass string        `json:"statusClass"`
	Label       string        `json:"label"`
	Plate       string        `json:"plate"`
	Model       string        `json:"model"`
	Info        string        `json:"info"`
}

// Cards converts a page into display cards.
func Cards(page PageWindow, maskPlates bool) []Card {
	cards := make([]Card, 0, len(page.Items))
	for _, e := range page.Items {
		cards = append(cards, CardFor(e, maskPlates))
	}
	return cards
}

func CardFor(e RankedEntry, maskPlate bool) Card {
	r := e.Record
	plate := r.Plate
	if maskPlate {
		plate = MaskPlate(plate)
	}
	return Card{
		Rank:        e.Rank,
		Status:      r.Status,
		StatusClass: StatusClass(r.Status),
		Label:       StatusLabel(r.Status),
		Plate:       plate,
		Model:       r.Model,
		Info:        InfoText(r),
	}
}

// MaskPlate hides the first two characters of a plate.
func MaskPlate(plate string) string {
	runes := []rune(plate)
	if len(runes) < 2 {
		return plate
	}
	return "**" + string(runes[2:])
}

func StatusClass(s repair.Status) string {
	switch s {
	case repair.StatusCompleted:
		return "done"
	case repair.StatusFinalInspection:
		return "inspect"
	default:
		return "working"
	}
}

func StatusLabel(s repair.Status) string {
	switch s {
	case repair.StatusCompleted:
		return "Completed"
	case repair.StatusFinalInspection:
		return "Final inspection"
	default:
		return "In progress"
	}
}

// InfoText is the third line of a column: a completion marker, the
// estimated finish time as HH:mm, or an unscheduled marker.
func InfoText(r repair.Record) string {
	switch {
	case r.Status == repair.StatusCompleted:
		return InfoComplete
	case r.EstimatedFinish.IsSet():
		return r.EstimatedFinish.HourMinute()
	default:
		return InfoUnscheduled
	}
}
