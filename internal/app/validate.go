package app

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"zoo-quiz-service/internal/domain"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	animalTag   = "animal"
	colorTag    = "animal_color"
	letterTag   = "letter"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	// Students read these messages, so they are French like the rest of the app.
	_fr := fr.New()
	uni := ut.New(_fr, _fr)
	translator, _ = uni.GetTranslator("fr")
	_ = fr_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(animalTag, knownAnimal)
	_ = validate.RegisterValidation(colorTag, knownColor)
	_ = validate.RegisterValidation(letterTag, validLetter)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, animalTag, colorTag, letterTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "ce champ ne peut pas être vide"
	case animalTag:
		return "animal inconnu"
	case colorTag:
		return "couleur inconnue"
	case letterTag:
		return "doit être a, b, c ou d"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func knownAnimal(fl validator.FieldLevel) bool {
	_, ok := domain.LookupAnimal(domain.AnimalType(fl.Field().String()))
	return ok
}

func knownColor(fl validator.FieldLevel) bool {
	_, ok := domain.LookupColor(domain.AnimalColor(fl.Field().String()))
	return ok
}

func validLetter(fl validator.FieldLevel) bool {
	return domain.Letter(fl.Field().String()).Valid()
}

// check validates v and converts failures into a *domain.ValidationError.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Fields = append(out.Fields, domain.FieldError{Field: field, Message: fe.Translate(translator)})
	}
	return out
}
