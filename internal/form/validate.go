package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loggier/app-corte/internal/models"
)

// Field length bounds.
const (
	MinYear        = 1900
	MaxModelLen    = 50
	MinTextLen     = 3
	MaxTextLen     = 100
	MaxObservation = 500
)

// Values holds the raw form input. Year stays a string until validation
// coerces it.
type Values struct {
	Brand       string // brand reference id
	Model       string // model name
	Year        string
	Tipo        models.Tipo
	Corte       string
	Colors      string
	Ubicacion   string
	Observation string
}

// Normalized is the validated form input with coerced and defaulted fields.
type Normalized struct {
	Brand       string
	Model       string
	Year        int
	Tipo        models.Tipo
	Corte       string
	Colors      string
	Ubicacion   string
	Observation string
}

type rule struct {
	field string
	check func(v Values, images *ImageSet) string
}

// Validation rules, one per field or derived field. Each returns an empty
// string on success or the inline message to show next to the field.
var rules = []rule{
	{"brand", func(v Values, _ *ImageSet) string {
		if v.Brand == "" {
			return "Brand is required."
		}
		return ""
	}},
	{"model", func(v Values, _ *ImageSet) string {
		if v.Model == "" {
			return "Model is required."
		}
		if len(v.Model) > MaxModelLen {
			return fmt.Sprintf("Model must be at most %d characters.", MaxModelLen)
		}
		return ""
	}},
	{"year", func(v Values, _ *ImageSet) string {
		year, err := strconv.Atoi(strings.TrimSpace(v.Year))
		if err != nil {
			return "Year must be a number."
		}
		if year < MinYear {
			return fmt.Sprintf("Year must be %d or later.", MinYear)
		}
		if year > maxYear() {
			return "Year cannot be in the future."
		}
		return ""
	}},
	{"tipo", func(v Values, _ *ImageSet) string {
		if v.Tipo == "" {
			return "" // defaulted to Auto during normalization
		}
		if !models.IsValidTipo(v.Tipo) {
			return "Invalid vehicle type."
		}
		return ""
	}},
	{"corte", func(v Values, _ *ImageSet) string {
		if v.Corte == "" {
			return "Corte is required."
		}
		if !models.IsValidCorte(v.Corte) {
			return "Invalid corte option."
		}
		return ""
	}},
	{"colors", func(v Values, _ *ImageSet) string {
		return textLenMessage("Color(s)", v.Colors)
	}},
	{"ubicacion", func(v Values, _ *ImageSet) string {
		return textLenMessage("Location", v.Ubicacion)
	}},
	{"images", func(_ Values, images *ImageSet) string {
		if images == nil {
			return ""
		}
		if images.Total() > models.MaxImageURLs {
			return fmt.Sprintf("You can only keep up to %d images.", models.MaxImageURLs)
		}
		for _, f := range images.PendingFiles() {
			if f.Size > MaxFileSize {
				return "Max image size is 5MB."
			}
			if !acceptedImageTypes[f.ContentType] {
				return "Only .jpg, .jpeg, .png and .webp formats are supported."
			}
		}
		return ""
	}},
	{"observation", func(v Values, _ *ImageSet) string {
		if len(v.Observation) > MaxObservation {
			return fmt.Sprintf("Observation must be at most %d characters.", MaxObservation)
		}
		return ""
	}},
}

func textLenMessage(label, value string) string {
	if len(value) < MinTextLen {
		return fmt.Sprintf("%s must be at least %d characters.", label, MinTextLen)
	}
	if len(value) > MaxTextLen {
		return fmt.Sprintf("%s must be at most %d characters.", label, MaxTextLen)
	}
	return ""
}

func maxYear() int {
	return time.Now().Year() + 1
}

// Validate runs every rule synchronously and either returns the normalized
// values or a ValidationError mapping each failing field to its message.
func Validate(v Values, images *ImageSet) (Normalized, *ValidationError) {
	fields := map[string]string{}
	for _, r := range rules {
		if msg := r.check(v, images); msg != "" {
			fields[r.field] = msg
		}
	}
	if len(fields) > 0 {
		return Normalized{}, &ValidationError{Fields: fields}
	}

	year, _ := strconv.Atoi(strings.TrimSpace(v.Year))
	tipo := v.Tipo
	if tipo == "" {
		tipo = models.DefaultTipo
	}
	return Normalized{
		Brand:       v.Brand,
		Model:       v.Model,
		Year:        year,
		Tipo:        tipo,
		Corte:       v.Corte,
		Colors:      v.Colors,
		Ubicacion:   v.Ubicacion,
		Observation: v.Observation,
	}, nil
}
