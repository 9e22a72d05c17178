package services

import (
	"fmt"
	"reflect"
	"strings"

	"restaurant-service/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxMoney is the largest value a numeric(6,2) column holds.
var maxMoney = decimal.RequireFromString("9999.99")

var fieldMessages = map[string]string{
	"required":   "This field is required.",
	"gte":        "Ensure this value is greater than or equal to 1.",
	"gt_zero":    "Ensure this value is greater than 0.",
	"line_price": "Ensure price equals quantity times unit price.",
	"max_digits": "Ensure that there are no more than 6 digits in total.",
}

// OrderItemValidator checks order lines before they are persisted.
type OrderItemValidator struct {
	validate *validator.Validate
}

func NewOrderItemValidator() *OrderItemValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateOrderItemPricing, models.OrderItem{})
	return &OrderItemValidator{validate: v}
}

func validateOrderItemPricing(sl validator.StructLevel) {
	item := sl.Current().Interface().(models.OrderItem)
	if !item.UnitPrice.GreaterThan(decimal.Zero) {
		sl.ReportError(item.UnitPrice, "unit_price", "UnitPrice", "gt_zero", "")
	}
	if !item.Price.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
		sl.ReportError(item.Price, "price", "Price", "line_price", "")
	}
	if item.Price.GreaterThan(maxMoney) {
		sl.ReportError(item.Price, "price", "Price", "max_digits", "")
	}
}

// Validate returns field errors keyed as orderitems[i].field, or nil.
func (v *OrderItemValidator) Validate(items []models.OrderItem) map[string][]string {
	fields := map[string][]string{}
	for i, item := range items {
		err := v.validate.Struct(item)
		if err == nil {
			continue
		}
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			key := fmt.Sprintf("orderitems[%d]", i)
			fields[key] = append(fields[key], err.Error())
			continue
		}
		for _, fe := range verrs {
			key := fmt.Sprintf("orderitems[%d].%s", i, fe.Field())
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = fmt.Sprintf("Failed on the %q rule.", fe.Tag())
			}
			fields[key] = append(fields[key], msg)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
