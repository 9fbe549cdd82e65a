package models

import (
	"fmt"
	"strings"
)

// Service is one bookable treatment.
type Service struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Catalog holds the fixed choice lists offered by the booking flow.
type Catalog struct {
	PresetAmounts  []float64 `yaml:"preset_amounts"`
	Durations      []int     `yaml:"durations"` // minutes
	PaymentOptions []string  `yaml:"payment_options"`
	ProfitOptions  []string  `yaml:"profit_options"`
	StaffOptions   []string  `yaml:"staff_options"`
	Services       []Service `yaml:"services"`
	PresetTimes    []string  `yaml:"preset_times"`
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		PresetAmounts:  []float64{200, 250, 300, 400, 500},
		Durations:      []int{60, 90, 120, 150, 180},
		PaymentOptions: []string{PaymentCash, PaymentOnline},
		ProfitOptions:  []string{ProfitShared, ProfitOnlyRanjeet},
		StaffOptions:   []string{"Praw", "Jenny"},
		Services: []Service{
			{ID: "thai", Name: "Thai"},
			{ID: "deep_tissue", Name: "Deep Tissue"},
			{ID: "swedish", Name: "Swedish"},
			{ID: "anti_cellulite", Name: "Anti-Cellulite"},
			{ID: "hot_candle", Name: "Hot Candle"},
			{ID: "maderotherapy", Name: "Maderotherapy"},
			{ID: "balinese", Name: "Balinese"},
			{ID: "lymphatic", Name: "Lymphatic"},
			{ID: "sports", Name: "Sports"},
		},
		PresetTimes: []string{
			"10:00 AM", "11:00 AM", "12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM",
			"5:00 PM", "6:00 PM", "7:00 PM", "8:00 PM", "9:00 PM", "10:00 PM",
		},
	}
}

func (c *Catalog) Validate() error {
	switch {
	case len(c.PresetAmounts) == 0:
		return fmt.Errorf("catalog: preset_amounts is empty")
	case len(c.Durations) == 0:
		return fmt.Errorf("catalog: durations is empty")
	case len(c.PaymentOptions) == 0:
		return fmt.Errorf("catalog: payment_options is empty")
	case len(c.ProfitOptions) == 0:
		return fmt.Errorf("catalog: profit_options is empty")
	case len(c.Services) == 0:
		return fmt.Errorf("catalog: services is empty")
	case len(c.PresetTimes) == 0:
		return fmt.Errorf("catalog: preset_times is empty")
	}

	seen := make(map[string]bool, len(c.Services))
	for _, s := range c.Services {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("catalog: service entries need id and name")
		}
		if seen[s.ID] {
			return fmt.Errorf("catalog: duplicate service id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// ServiceName resolves a service id to its display name.
func (c *Catalog) ServiceName(id string) (string, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s.Name, true
		}
	}
	return "", false
}

// StaffName resolves a staff option regardless of case.
func (c *Catalog) StaffName(v string) (string, bool) {
	for _, s := range c.StaffOptions {
		if strings.EqualFold(s, v) {
			return s, true
		}
	}
	return "", false
}
