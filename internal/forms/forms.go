// Package forms validates form submissions before any record is created.
// Each parser is a pure function from submitted values to either a typed
// input or a map of field-level error messages; rendering is the caller's
// concern.
package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldErrors maps a form field name to a user-visible message.
// An empty map means the submission passed.
type FieldErrors map[string]string

// Ok reports whether validation passed.
func (e FieldErrors) Ok() bool { return len(e) == 0 }

// AmenityPlaceholder is the default select option; choosing it fails
// validation.
const AmenityPlaceholder = "Select yes or no"

// AddCafeInput is a validated cafe submission. Amenities are "yes" or "no".
type AddCafeInput struct {
	Name         string
	MapURL       string
	ImgURL       string
	Location     string
	HasSockets   string
	HasToilet    string
	HasWifi      string
	CanTakeCalls string
	Seats        int
	CoffeePrice  string
}

// CommentInput is a validated review submission.
type CommentInput struct {
	Body string
}

// LoginInput is a validated login submission. Name is collected by the
// form but not used to authenticate.
type LoginInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterInput is a validated registration submission.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func required(errs FieldErrors, field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		errs[field] = "This field is required"
	}
	return value
}

func wellFormedURL(errs FieldErrors, field, value string) {
	if value == "" {
		return
	}
	if err := validate.Var(value, "url"); err != nil {
		errs[field] = "Url Invalid"
	}
}

func amenity(errs FieldErrors, field, value string) string {
	switch value {
	case "yes", "no":
		return value
	default:
		errs[field] = AmenityPlaceholder
		return value
	}
}

// ParseAddCafe validates a cafe-add submission.
func ParseAddCafe(values url.Values) (*AddCafeInput, FieldErrors) {
	errs := FieldErrors{}

	in := &AddCafeInput{
		Name:        required(errs, "name", values.Get("name")),
		MapURL:      required(errs, "map_url", values.Get("map_url")),
		ImgURL:      required(errs, "img_url", values.Get("img_url")),
		Location:    required(errs, "location", values.Get("location")),
		CoffeePrice: required(errs, "price", values.Get("price")),
	}
	wellFormedURL(errs, "map_url", in.MapURL)
	wellFormedURL(errs, "img_url", in.ImgURL)

	in.HasSockets = amenity(errs, "sockets", values.Get("sockets"))
	in.HasToilet = amenity(errs, "toilet", values.Get("toilet"))
	in.HasWifi = amenity(errs, "wifi", values.Get("wifi"))
	in.CanTakeCalls = amenity(errs, "calls", values.Get("calls"))

	seats := required(errs, "seats", values.Get("seats"))
	if seats != "" {
		n, err := strconv.Atoi(seats)
		if err != nil || n < 0 {
			errs["seats"] = "Must be a whole number"
		} else {
			in.Seats = n
		}
	}

	if !errs.Ok() {
		return nil, errs
	}
	return in, nil
}

// ParseComment validates a review submission.
func ParseComment(values url.Values) (*CommentInput, FieldErrors) {
	errs := FieldErrors{}
	body := required(errs, "body", values.Get("body"))
	if !errs.Ok() {
		return nil, errs
	}
	return &CommentInput{Body: body}, nil
}

// ParseLogin validates a login submission.
func ParseLogin(values url.Values) (*LoginInput, FieldErrors) {
	errs := FieldErrors{}
	in := &LoginInput{
		Name:     required(errs, "name", values.Get("name")),
		Email:    required(errs, "email", values.Get("email")),
		Password: values.Get("password"),
	}
	if in.Password == "" {
		errs["password"] = "This field is required"
	}
	if in.Email != "" {
		if err := validate.Var(in.Email, "email"); err != nil {
			errs["email"] = "Email Invalid"
		}
	}
	if !errs.Ok() {
		return nil, errs
	}
	return in, nil
}

// ParseRegister validates a registration submission.
func ParseRegister(values url.Values) (*RegisterInput, FieldErrors) {
	errs := FieldErrors{}
	in := &RegisterInput{
		Name:     required(errs, "name", values.Get("name")),
		Email:    required(errs, "email", values.Get("email")),
		Password: values.Get("password"),
	}
	if in.Email != "" {
		if err := validate.Var(in.Email, "email"); err != nil {
			errs["email"] = "Email Invalid"
		}
	}
	if len(in.Password) < 4 {
		errs["password"] = "Password must be at least 4 characters"
	}
	if !errs.Ok() {
		return nil, errs
	}
	return in, nil
}
