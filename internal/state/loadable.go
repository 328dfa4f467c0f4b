package state

type LoadState uint8

const (
	NotLoaded LoadState = iota
	Loading
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "not loaded"
	}
}

// Loadable tracks one asynchronously loaded value. Value is meaningful only
// when State is Ready; Err only when State is Failed.
type Loadable[T any] struct {
	State LoadState
	Value T
	Err   string
}

func LoadingOf[T any]() Loadable[T] {
	return Loadable[T]{State: Loading}
}

func ReadyOf[T any](v T) Loadable[T] {
	return Loadable[T]{State: Ready, Value: v}
}

func FailedOf[T any](msg string) Loadable[T] {
	return Loadable[T]{State: Failed, Err: msg}
}

func (l Loadable[T]) IsReady() bool   { return l.State == Ready }
func (l Loadable[T]) IsLoading() bool { return l.State == Loading }

// Get returns the value and whether it is ready.
func (l Loadable[T]) Get() (T, bool) {
	return l.Value, l.State == Ready
}

func cloneLoadable[T any](l Loadable[T], clone func(T) T) Loadable[T] {
	if l.State == Ready {
		l.Value = clone(l.Value)
	}
	return l
}
