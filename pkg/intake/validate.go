package intake

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce      sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// validatorInstance returns the shared validator with the snapshot enum tags
// registered and json tag names used in messages.
func validatorInstance() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerEnum(v, trans, "severity", "{0} must be a known offense severity", func(fl validator.FieldLevel) bool {
			return OffenseSeverity(fl.Field().String()).Valid()
		})
		registerEnum(v, trans, "supervision", "{0} must be a known supervision status", func(fl validator.FieldLevel) bool {
			return SupervisionStatus(fl.Field().String()).Valid()
		})
		registerEnum(v, trans, "living", "{0} must be a known living situation", func(fl validator.FieldLevel) bool {
			return LivingSituation(fl.Field().String()).Valid()
		})

		validate, translator = v, trans
	})
	return validate, translator
}

func registerEnum(v *validator.Validate, trans ut.Translator, tag, text string, fn validator.Func) {
	_ = v.RegisterValidation(tag, fn)
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}

// Validate checks the snapshot's structure and closed-variant fields.
func Validate(s *CaseSnapshot) error {
	if s == nil {
		return &ValidationError{Errors: []FieldError{{Field: "snapshot", Message: "snapshot is required"}}}
	}

	v, trans := validatorInstance()
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	verr := &ValidationError{CaseID: s.CaseID}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Errors = append(verr.Errors, FieldError{Field: "snapshot", Message: err.Error()})
		return verr
	}
	for _, fe := range verrs {
		verr.Errors = append(verr.Errors, FieldError{
			Field:   trimNamespace(fe.Namespace()),
			Message: fe.Translate(trans),
		})
	}
	return verr
}

// trimNamespace drops the root struct name from a validator namespace.
func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
