// utils/http.go - Fiber response and request helpers
package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"carbonsense/emissions"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("travel_mode", func(fl validator.FieldLevel) bool {
		return emissions.IsTravelMode(fl.Field().String())
	})
	_ = v.RegisterValidation("food_type", func(fl validator.FieldLevel) bool {
		return emissions.IsFoodType(fl.Field().String())
	})
	return v
}

// JSONError sends {success:false, error}.
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// JSONSuccess sends {success:true} merged with data when data is a map,
// otherwise {success:true, data}.
func JSONSuccess(c *fiber.Ctx, data interface{}) error {
	response := fiber.Map{"success": true}

	switch d := data.(type) {
	case fiber.Map:
		for k, v := range d {
			response[k] = v
		}
	case map[string]interface{}:
		for k, v := range d {
			response[k] = v
		}
	case nil:
	default:
		response["data"] = data
	}

	return c.JSON(response)
}

// ParseAndValidate decodes the body into v and runs its validate tags. An
// empty body leaves v untouched.
func ParseAndValidate(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(v); err != nil {
			return fmt.Errorf("Invalid request body")
		}
	}
	return Validate(v)
}

// Validate runs validate tags and flattens the failures into one message.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "travel_mode":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(emissions.TravelModes, " "))
	case "food_type":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(emissions.FoodTypes, " "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// QueryInt reads an int query parameter, falling back to def when missing
// or malformed, and clamps it to [min, max].
func QueryInt(c *fiber.Ctx, key string, def, min, max int) int {
	n := def
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
