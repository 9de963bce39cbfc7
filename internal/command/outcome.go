package command

import (
	"errors"
	"fmt"

	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/weather"
)

// Kind classifies how a command ended.
type Kind int

const (
	OK Kind = iota
	NeedsSetup
	Upstream
	Internal
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case NeedsSetup:
		return "needs_setup"
	case Upstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Outcome is the result of one dispatched command. Read commands fill Items,
// write commands fill Message; a failed command still carries exactly one
// item or message describing the failure.
type Outcome struct {
	Kind    Kind
	Items   []present.Item
	Message string
	Err     error
}

var (
	errUnknownAction  = errors.New("unknown action")
	errUnknownCommand = errors.New("unknown command")
)

// Classify maps err onto an outcome kind.
func Classify(err error) Kind {
	if err == nil {
		return OK
	}
	var setup *weather.SetupError
	if errors.As(err, &setup) {
		return NeedsSetup
	}
	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		return Upstream
	}
	return Internal
}

func tellFailure(err error) Outcome {
	kind := Classify(err)

	var item present.Item
	switch kind {
	case NeedsSetup:
		var setup *weather.SetupError
		errors.As(err, &setup)
		item = present.ErrorItem(setup.Title, setup.Subtitle)
	case Upstream:
		var upstream *weather.UpstreamError
		errors.As(err, &upstream)
		item = present.ErrorItem(upstream.Description, "")
	default:
		item = present.ErrorItem(err.Error(), "")
	}
	return Outcome{Kind: kind, Items: []present.Item{item}, Err: err}
}

func doFailure(err error) Outcome {
	return Outcome{Kind: Classify(err), Message: fmt.Sprintf("Error: %v", err), Err: err}
}

// IsUnknownVerb reports whether err came from dispatching an unknown verb.
func IsUnknownVerb(err error) bool {
	return errors.Is(err, errUnknownAction) || errors.Is(err, errUnknownCommand)
}
