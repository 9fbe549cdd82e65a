package bot

import (
	"errors"

	"backoffice/internal/database"
	"backoffice/internal/service"
)

const (
	msgNoActiveProcess = "No active process. Please use /start to begin."
	msgSomethingWrong  = "Something went wrong. Please use /start to begin again."
)

// flowEnd is a terminal, user-facing outcome of a step: the text is sent and
// the chat is cleaned up.
type flowEnd struct {
	text string
	err  error
}

func (e *flowEnd) Error() string {
	if e.err != nil {
		return e.text + ": " + e.err.Error()
	}
	return e.text
}

func (e *flowEnd) Unwrap() error { return e.err }

func endFlow(text string, cause error) error {
	return &flowEnd{text: text, err: cause}
}

// userMessage maps a step error to the reply text. terminal reports whether
// the flow ends with a cleanup; otherwise the session is kept so the user can
// restart.
func userMessage(err error) (text string, terminal bool) {
	var end *flowEnd
	switch {
	case errors.As(err, &end):
		return end.text, true
	case errors.Is(err, errInvalidAmount):
		return "Invalid amount. Please use /start to begin again.", true
	case errors.Is(err, errInvalidDate):
		return "Invalid date. Please use the YYYY-MM-DD format and /start again.", true
	case errors.Is(err, errInvalidTime):
		return "Invalid time. Please use a time like 4:30 PM and /start again.", true
	case errors.Is(err, service.ErrInvalidRecord):
		return "Invalid value. Please use /start to begin again.", true
	case errors.Is(err, database.ErrDuplicate):
		return "A record with this phone number already exists.", true
	case errors.Is(err, database.ErrNotFound):
		return "Record not found.", true
	default:
		return msgSomethingWrong, false
	}
}
