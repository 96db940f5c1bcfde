package memory

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"memory-graph/backend/internal/utils"
	apperrors "memory-graph/backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("emotion", func(fl validator.FieldLevel) bool {
		return Emotion(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := utils.ParseMemoryDate(fl.Field().String())
		return ok
	})
	return v
}

// PersonInput names a person to attach to a memory. Any id sent by the client
// is ignored; identity is resolved by name.
type PersonInput struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship,omitempty"`
}

// PlaceInput names a place to attach to a memory
type PlaceInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type,omitempty"`
}

// CreateInput is the full attribute set of a new memory
type CreateInput struct {
	Text           string        `json:"text" validate:"required"`
	Date           string        `json:"date" validate:"required,isodate"`
	Emotion        Emotion       `json:"emotion" validate:"required,emotion"`
	UserID         string        `json:"userId" validate:"required"`
	People         []PersonInput `json:"people" validate:"dive"`
	Places         []PlaceInput  `json:"places" validate:"dive"`
	Photos         []Photo       `json:"photos" validate:"dive"`
	LinkedMemories []string      `json:"linkedMemories"`
}

// UpdateInput is a partial update. A nil field is left untouched; a non-nil
// relation field, even an empty one, replaces that relation set entirely.
type UpdateInput struct {
	Text           *string        `json:"text,omitempty" validate:"omitnil,min=1"`
	Date           *string        `json:"date,omitempty" validate:"omitnil,isodate"`
	Emotion        *Emotion       `json:"emotion,omitempty" validate:"omitnil,emotion"`
	People         *[]PersonInput `json:"people,omitempty"`
	Places         *[]PlaceInput  `json:"places,omitempty"`
	Photos         *[]Photo       `json:"photos,omitempty"`
	LinkedMemories *[]string      `json:"linkedMemories,omitempty"`
}

// Normalize trims names, collapses duplicates and drops blank entries in place
func (in *CreateInput) Normalize() {
	in.Text = strings.TrimSpace(in.Text)
	in.Date = strings.TrimSpace(in.Date)
	in.UserID = strings.TrimSpace(in.UserID)
	in.People = normalizePeople(in.People)
	in.Places = normalizePlaces(in.Places)
	in.Photos = normalizePhotos(in.Photos)
	in.LinkedMemories = utils.UniqueStrings(in.LinkedMemories)
}

// Validate checks the normalized input
func (in *CreateInput) Validate() error {
	return validateStruct(in)
}

// Normalize applies the same clean-up as CreateInput.Normalize to present fields
func (in *UpdateInput) Normalize() {
	if in.Text != nil {
		t := strings.TrimSpace(*in.Text)
		in.Text = &t
	}
	if in.Date != nil {
		d := strings.TrimSpace(*in.Date)
		in.Date = &d
	}
	if in.People != nil {
		p := normalizePeople(*in.People)
		in.People = &p
	}
	if in.Places != nil {
		p := normalizePlaces(*in.Places)
		in.Places = &p
	}
	if in.Photos != nil {
		p := normalizePhotos(*in.Photos)
		in.Photos = &p
	}
	if in.LinkedMemories != nil {
		l := utils.UniqueStrings(*in.LinkedMemories)
		in.LinkedMemories = &l
	}
}

// Validate checks the normalized input
func (in *UpdateInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.People != nil {
		for i := range *in.People {
			if err := validateStruct(&(*in.People)[i]); err != nil {
				return err
			}
		}
	}
	if in.Places != nil {
		for i := range *in.Places {
			if err := validateStruct(&(*in.Places)[i]); err != nil {
				return err
			}
		}
	}
	if in.Photos != nil {
		for i := range *in.Photos {
			if err := validateStruct(&(*in.Photos)[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Empty reports whether the update carries no field at all
func (in *UpdateInput) Empty() bool {
	return in.Text == nil && in.Date == nil && in.Emotion == nil &&
		in.People == nil && in.Places == nil && in.Photos == nil && in.LinkedMemories == nil
}

// Scalars returns the scalar properties present in the update keyed by node property name
func (in *UpdateInput) Scalars() map[string]any {
	props := map[string]any{}
	if in.Text != nil {
		props["text"] = *in.Text
	}
	if in.Date != nil {
		props["date"] = *in.Date
	}
	if in.Emotion != nil {
		props["emotion"] = string(*in.Emotion)
	}
	return props
}

func normalizePeople(in []PersonInput) []PersonInput {
	seen := make(map[string]bool, len(in))
	out := make([]PersonInput, 0, len(in))
	for _, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		p.Relationship = strings.TrimSpace(p.Relationship)
		p.ID = ""
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

func normalizePlaces(in []PlaceInput) []PlaceInput {
	seen := make(map[string]bool, len(in))
	out := make([]PlaceInput, 0, len(in))
	for _, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.TrimSpace(p.Type)
		p.ID = ""
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

func normalizePhotos(in []Photo) []Photo {
	out := make([]Photo, 0, len(in))
	for _, p := range in {
		p.URL = strings.TrimSpace(p.URL)
		p.Caption = strings.TrimSpace(p.Caption)
		if p.URL == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationFailed(err.Error())
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return apperrors.NewValidationFailed(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())

	switch e.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s is required", field)
	case "emotion":
		return fmt.Sprintf("%s must be one of: %s", field, emotionList())
	case "isodate":
		return fmt.Sprintf("%s must be an ISO 8601 date", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func emotionList() string {
	names := make([]string, len(Emotions))
	for i, e := range Emotions {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}
