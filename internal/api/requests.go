package api

import (
	"encoding/json"

	"github.com/repairboard/kioskd/internal/repair"
)

// RepairRequest is the body of create and replace.
type RepairRequest struct {
	LicensePlateNumber  string `json:"licensePlateNumber"`
	CarModel            string `json:"carModel"`
	RepairStatus        string `json:"repairStatus"`
	RequestedTime       string `json:"requestedTime"`
	EstimatedFinishTime string `json:"estimatedFinishTime"`
}

func (req RepairRequest) Record() (repair.Record, error) {
	status, err := repair.ParseStatus(req.RepairStatus)
	if err != nil {
		return repair.Record{}, err
	}
	requested, err := parseTime("requestedTime", req.RequestedTime)
	if err != nil {
		return repair.Record{}, err
	}
	finish, err := parseTime("estimatedFinishTime", req.EstimatedFinishTime)
	if err != nil {
		return repair.Record{}, err
	}
	rec := repair.Record{
		Plate:           req.LicensePlateNumber,
		Model:           req.CarModel,
		Status:          status,
		RequestedTime:   requested,
		EstimatedFinish: finish,
	}
	if err := rec.Validate(); err != nil {
		return repair.Record{}, err
	}
	return rec, nil
}

// PatchRequest is the body of a partial update. Absent keys leave the field
// alone; a null or empty time clears it.
type PatchRequest struct {
	RepairStatus        *string      `json:"repairStatus"`
	CarModel            *string      `json:"carModel"`
	RequestedTime       optionalTime `json:"requestedTime"`
	EstimatedFinishTime optionalTime `json:"estimatedFinishTime"`
}

func (req PatchRequest) Changes() (repair.Changes, error) {
	var c repair.Changes
	if req.RepairStatus != nil {
		status, err := repair.ParseStatus(*req.RepairStatus)
		if err != nil {
			return c, err
		}
		c.Status = &status
	}
	c.Model = req.CarModel
	if req.RequestedTime.set {
		t, err := parseTime("requestedTime", req.RequestedTime.value)
		if err != nil {
			return c, err
		}
		c.RequestedTime = &t
	}
	if req.EstimatedFinishTime.set {
		t, err := parseTime("estimatedFinishTime", req.EstimatedFinishTime.value)
		if err != nil {
			return c, err
		}
		c.EstimatedFinish = &t
	}
	return c, nil
}

// optionalTime tells an absent key apart from an explicit null.
type optionalTime struct {
	set   bool
	value string
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = ""
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

func parseTime(field, s string) (repair.TimeOfDay, error) {
	t, err := repair.ParseTimeOfDay(s)
	if err != nil {
		return repair.TimeOfDay{}, &repair.ValidationError{Field: field, Value: s, Err: err}
	}
	return t, nil
}
