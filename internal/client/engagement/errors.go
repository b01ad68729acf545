package engagement

import (
	"context"
	"errors"
	"net"
	"net/http"

	clientapi "github.com/iudanet/forkful/internal/client/api"
	"github.com/iudanet/forkful/internal/client/retry"
	"github.com/iudanet/forkful/internal/models"
	"github.com/iudanet/forkful/internal/validation"
)

var (
	// ErrAuthRequired возвращается при мутации без идентификатора пользователя
	ErrAuthRequired = errors.New("sign in required")

	// ErrValidation оборачивает ошибки проверки входных данных
	ErrValidation = errors.New("validation failed")

	// ErrRetryExhausted означает, что мутация не прошла после всех повторов
	ErrRetryExhausted = retry.ErrExhausted
)

// ErrorKind классифицирует причину неудачи мутации
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransient
	KindValidation
	KindAuthRequired
	KindPermanent
	KindRetryExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindAuthRequired:
		return "auth_required"
	case KindPermanent:
		return "permanent"
	case KindRetryExhausted:
		return "retry_exhausted"
	}
	return "unknown"
}

// Retryable reports whether a mutation failing with this kind is handed to
// the retry scheduler.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}

// Classify maps an error returned by a remote call or a local check to its kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrRetryExhausted), errors.Is(err, retry.ErrSchedulerClosed):
		return KindRetryExhausted
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrValidation), errors.Is(err, validation.ErrInvalid):
		return KindValidation
	case errors.Is(err, context.Canceled):
		return KindPermanent
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}

	var statusErr *clientapi.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	return KindPermanent
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuthRequired
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return KindTransient
	case code == http.StatusBadRequest, code == http.StatusConflict, code == http.StatusUnprocessableEntity:
		return KindValidation
	}
	return KindPermanent
}

// Failure описывает мутацию, откаченную после ошибки. Доставляется
// слушателям OnFailure ровно один раз на мутацию.
type Failure struct {
	Err      error
	Mutation models.PendingMutation
	Kind     ErrorKind
}

// FailureFunc получает уведомление об откате мутации
type FailureFunc func(f Failure)
