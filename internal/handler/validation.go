package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oncallhq/pager-api/internal/model"
)

// RegisterValidations installs the custom binding validators the API
// handlers use: tzdata for IANA timezone names and daycode for weekday
// restriction codes.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("tzdata", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	return v.RegisterValidation("daycode", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.DayMonday, model.DayTuesday, model.DayWednesday, model.DayThursday,
			model.DayFriday, model.DaySaturday, model.DaySunday:
			return true
		}
		return false
	})
}
