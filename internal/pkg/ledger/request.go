package ledger

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// VehicleEntry is one truck of a plan submission.
type VehicleEntry struct {
	CarNumber  string `json:"car_number" validate:"max=100"`
	DriverName string `json:"driver_name" validate:"max=255"`
}

// IsBlank reports whether the entry names neither a car nor a driver.
func (v VehicleEntry) IsBlank() bool {
	return strings.TrimSpace(v.CarNumber) == "" && strings.TrimSpace(v.DriverName) == ""
}

// PlanRequest is the create/update payload.
type PlanRequest struct {
	OccurredAt string          `json:"occurred_at" validate:"required,datetime=2006-01-02"`
	GoodsCode  string          `json:"goods_code" validate:"required,max=50"`
	GoodsName  string          `json:"goods_name" validate:"required,max=255"`
	LoadAmount decimal.Decimal `json:"load_amount" validate:"-"`
	CustomerID string          `json:"customer_id" validate:"required,max=50"`
	Recipient  string          `json:"recipient" validate:"required,max=255"`
	Notes      string          `json:"notes"`
	Vehicles   []VehicleEntry  `json:"vehicles" validate:"required,min=1,dive"`
}

// Date returns OccurredAt as midnight UTC of the given calendar day.
func (r PlanRequest) Date() time.Time {
	t, _ := time.Parse(dateLayout, r.OccurredAt)
	return t
}

type indexedVehicle struct {
	index int
	VehicleEntry
}

// usableVehicles drops blank entries, keeping each survivor's request index.
func (r PlanRequest) usableVehicles() []indexedVehicle {
	out := make([]indexedVehicle, 0, len(r.Vehicles))
	for i, v := range r.Vehicles {
		if v.IsBlank() {
			continue
		}
		out = append(out, indexedVehicle{index: i, VehicleEntry: v})
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(PlanRequest)
		if len(req.usableVehicles()) == 0 && len(req.Vehicles) > 0 {
			sl.ReportError(req.Vehicles, "vehicles", "Vehicles", "vehicle_required", "")
		}
		if req.LoadAmount.IsNegative() {
			sl.ReportError(req.LoadAmount, "load_amount", "LoadAmount", "gte", "0")
		}
	}, PlanRequest{})
	return v
}

// Validate checks the request and returns a *ValidationError on failure.
func (r PlanRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the struct name: "PlanRequest.vehicles[0].car_number" -> "vehicles[0].car_number".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "min":
		return "needs at least " + fe.Param() + " entry"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must not be negative"
	case "vehicle_required":
		return "at least one vehicle needs a car number or driver name"
	default:
		return "is invalid"
	}
}
