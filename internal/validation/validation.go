package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid возвращается (обернутым) для любого нарушения правил ввода
var ErrInvalid = errors.New("invalid input")

const (
	// MaxCommentLen максимальная длина комментария в символах
	MaxCommentLen = 2000
	// MaxIDLen максимальная длина идентификатора поста, комментария или доски
	MaxIDLen = 128
)

// IDPattern допустимый формат идентификаторов: латиница, цифры, '-', '_'
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("entityid", func(fl validator.FieldLevel) bool {
		return IDPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return UsernamePattern.MatchString(fl.Field().String())
	})
}

// CommentInput поля комментария, проверяемые до оптимистичного обновления
type CommentInput struct {
	ItemID   string `validate:"required,max=128,entityid"`
	Content  string `validate:"required,notblank,max=2000"`
	ParentID string `validate:"omitempty,max=128,entityid"`
}

// ToggleInput поля мутации лайка/сохранения
type ToggleInput struct {
	ItemID       string `validate:"required,max=128,entityid"`
	CollectionID string `validate:"omitempty,max=128,entityid"`
}

// ValidateComment проверяет комментарий перед отправкой
func ValidateComment(in CommentInput) error {
	return check(validate.Struct(in))
}

// ValidateToggle проверяет параметры лайка или сохранения
func ValidateToggle(in ToggleInput) error {
	return check(validate.Struct(in))
}

// ValidateUsername проверяет, что username соответствует требованиям
// Формат: только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа
func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,username"); err != nil {
		return fmt.Errorf("%w: username must be 3-32 characters of letters, numbers and underscores", ErrInvalid)
	}
	return nil
}

// check переводит ошибки validator в сообщения вида "content: required"
func check(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " cannot be empty"
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "entityid":
		return field + " can only contain letters, numbers, '-' and '_'"
	}
	return fmt.Sprintf("%s failed %q rule", field, fe.Tag())
}
