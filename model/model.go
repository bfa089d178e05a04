package model

import (
	"errors"
	"strings"
	"time"

	"github.com/mbolis/hvac-survey/schema"
)

// Equipment is a surveyed HVAC unit.
type Equipment struct {
	ID           int       `json:"id,omitempty"`
	Tag          string    `json:"tag"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serialNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (e Equipment) Check() error {
	if strings.TrimSpace(e.Tag) == "" {
		return errors.New("tag is required")
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("category is required")
	}
	return nil
}

// Survey is one filled-in template form for a piece of equipment.
// SurveyData is kept as submitted: it is not re-validated when the template
// changes later on, TemplateVersion records the version it was checked
// against.
type Survey struct {
	ID              int            `json:"id,omitempty"`
	EquipmentID     int            `json:"equipmentId"`
	TemplateID      int            `json:"templateId"`
	TemplateVersion int            `json:"templateVersion,omitempty"`
	SurveyDate      string         `json:"surveyDate"`
	PreparedBy      string         `json:"preparedBy"`
	SurveyData      map[string]any `json:"surveyData"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Check validates the survey header; SurveyData is checked against its
// template separately.
func (s Survey) Check() error {
	if s.EquipmentID <= 0 {
		return errors.New("equipmentId is required")
	}
	if s.TemplateID <= 0 {
		return errors.New("templateId is required")
	}
	if _, err := time.Parse(schema.DateLayout, s.SurveyDate); err != nil {
		return errors.New("surveyDate must be a YYYY-MM-DD date")
	}
	if strings.TrimSpace(s.PreparedBy) == "" {
		return errors.New("preparedBy is required")
	}
	return nil
}

// Stats feeds the dashboard.
type Stats struct {
	Equipment         int             `json:"equipment"`
	Templates         int             `json:"templates"`
	Surveys           int             `json:"surveys"`
	SurveysByTemplate []TemplateCount `json:"surveysByTemplate"`
}

type TemplateCount struct {
	TemplateID int    `json:"templateId"`
	Name       string `json:"name"`
	Surveys    int    `json:"surveys"`
}
