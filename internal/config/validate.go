package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/abhisek/phasegate/internal/phase"
)

const checkpointTag = "checkpoint"

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report yaml names, which is what users write.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(checkpointTag, checkpointValidation)
	_ = validate.RegisterTranslation(checkpointTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fmt.Sprintf("%v is not a checkpoint phase (sync, reflect, prove, master)", fe.Value())
		},
	)
}

func checkpointValidation(fl validator.FieldLevel) bool {
	id, err := phase.Parse(fl.Field().String())
	return err == nil && id.IsCheckpoint()
}

// Validate checks every field constraint and the LLM provider settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Translate(translator)))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}
