package engagement

// Result is the explicit outcome of a coordinator operation.
//
// On success Value holds the reconciled state. When the remote call failed
// with a transient error and was queued for retry, Pending is set, Err is nil
// and Value holds the optimistic state. On failure Err and Kind describe the
// reason and Value holds the state after rollback.
type Result[T any] struct {
	Value   T
	Err     error
	Kind    ErrorKind
	Pending bool
}

// Ok создает успешный результат
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Queued создает результат мутации, ожидающей повтора
func Queued[T any](v T) Result[T] {
	return Result[T]{Value: v, Pending: true}
}

// Fail создает неуспешный результат, классифицируя err
func Fail[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err, Kind: Classify(err)}
}

// OK reports whether the operation succeeded or was queued.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap возвращает значение и ошибку в привычной для Go форме
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
