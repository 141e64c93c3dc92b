package client

// ResultHandler receives terminal call outcomes. It is passed at
// construction and replaces ad hoc optional callback fields: the
// controller invokes exactly one of the two methods per completed
// call, and neither for aborted calls.
type ResultHandler interface {
	// HandleSuccess is called after a successful completion, cache
	// hits included.
	HandleSuccess(result *Result)

	// HandleError is called after the retry budget is exhausted, with
	// the terminal error and the number of attempts made.
	HandleError(err error, attempts int)
}

// HandlerFuncs adapts plain functions to a ResultHandler. Nil fields
// are skipped.
type HandlerFuncs struct {
	Success func(result *Result)
	Error   func(err error, attempts int)
}

// HandleSuccess implements ResultHandler.
func (h HandlerFuncs) HandleSuccess(result *Result) {
	if h.Success != nil {
		h.Success(result)
	}
}

// HandleError implements ResultHandler.
func (h HandlerFuncs) HandleError(err error, attempts int) {
	if h.Error != nil {
		h.Error(err, attempts)
	}
}

// nopHandler is the default when no handler is configured.
type nopHandler struct{}

func (nopHandler) HandleSuccess(*Result)  {}
func (nopHandler) HandleError(error, int) {}

var _ ResultHandler = HandlerFuncs{}
var _ ResultHandler = nopHandler{}
