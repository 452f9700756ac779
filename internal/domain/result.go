package domain

// FailureKind classifies a failed ActionResult so the transport can pick a status code.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureUnauthenticated
	FailureUnauthorized
	FailureNotFound
	FailureValidation
	FailureUpstream
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureUnauthenticated:
		return "unauthenticated"
	case FailureUnauthorized:
		return "unauthorized"
	case FailureNotFound:
		return "not_found"
	case FailureValidation:
		return "validation"
	case FailureUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// ActionResult is the envelope returned by every gateway operation.
// Data is only meaningful when Ok is true.
type ActionResult[T any] struct {
	Ok      bool        `json:"ok"`
	Message string      `json:"message"`
	Data    T           `json:"data,omitempty"`
	Kind    FailureKind `json:"-"`
}

// Succeed builds a successful result
func Succeed[T any](message string, data T) ActionResult[T] {
	return ActionResult[T]{
		Ok:      true,
		Message: message,
		Data:    data,
	}
}

// Fail builds a failed result. The message must be safe to show to the caller.
func Fail[T any](kind FailureKind, message string) ActionResult[T] {
	return ActionResult[T]{
		Ok:      false,
		Message: message,
		Kind:    kind,
	}
}

// FailFrom converts a failed result of one payload type into another
func FailFrom[T any, U any](r ActionResult[U]) ActionResult[T] {
	return Fail[T](r.Kind, r.Message)
}

// Unauthenticated is the result returned when no identity is present
func Unauthenticated[T any]() ActionResult[T] {
	return Fail[T](FailureUnauthenticated, "Unauthorized")
}
