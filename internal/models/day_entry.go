package models

import (
	"github.com/go-playground/validator/v10"
)

type DayType string

const (
	DayTypeOffice      DayType = "office"
	DayTypeSick        DayType = "sick"
	DayTypeAnnualLeave DayType = "annual_leave"
	DayTypeOther       DayType = "other"
)

// DayTypes все допустимые типы дня в порядке отображения
var DayTypes = []DayType{DayTypeOffice, DayTypeSick, DayTypeAnnualLeave, DayTypeOther}

// IsAbsence проверяет, уменьшает ли тип дня количество рабочих дней месяца
func (t DayType) IsAbsence() bool {
	return t == DayTypeSick || t == DayTypeAnnualLeave || t == DayTypeOther
}

type DayEntry struct {
	Date string  `gorm:"primaryKey;type:text" json:"date" validate:"required,datetime=2006-01-02"`
	Type DayType `gorm:"type:text;not null" json:"type" validate:"required,oneof=office sick annual_leave other"`
}

// TableName задает имя таблицы в БД
func (DayEntry) TableName() string {
	return "day_entries"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет формат даты и тип дня
func (e DayEntry) Validate() error {
	return validate.Struct(e)
}

// IsValid проверяет валидность данных
func (e DayEntry) IsValid() bool {
	return e.Validate() == nil
}
