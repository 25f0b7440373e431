package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList custom type for JSON storage of ordered strings
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return errors.New("type assertion to []byte failed")
}

// NutritionInfo is the optional per-serving breakdown of a recipe
type NutritionInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty"`
	Fats          *float64 `json:"fats,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
}

// Negative reports the name of the first negative field, if any
func (n NutritionInfo) Negative() (string, bool) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"calories", n.Calories},
		{"carbohydrates", n.Carbohydrates},
		{"proteins", n.Proteins},
		{"fats", n.Fats},
		{"fiber", n.Fiber},
	}
	for _, field := range fields {
		if field.value != nil && *field.value < 0 {
			return field.name, true
		}
	}
	return "", false
}

func (n NutritionInfo) Value() (driver.Value, error) {
	bytes, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (n *NutritionInfo) Scan(value interface{}) error {
	if value == nil {
		*n = NutritionInfo{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	}
	return errors.New("type assertion to []byte failed")
}
