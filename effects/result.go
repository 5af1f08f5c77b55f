package effects

// Result carries either the value of a finished computation or its error.
type Result[T any] struct {
	Value T
	Err   error
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure wraps an error.
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// ResultFrom builds a Result from the usual (value, error) pair.
func ResultFrom[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

func (r Result[T]) IsSuccess() bool {
	return r.Err == nil
}

// Get unpacks the result back into a (value, error) pair.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}
