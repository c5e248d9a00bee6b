package protocol

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphtide/neohttp/transport"
)

// Phase identifies the protocol phase a request belongs to.
type Phase int

const (
	// PhaseOpenAndCommit executes statements in a single round trip.
	PhaseOpenAndCommit Phase = iota
	// PhaseOpen opens a transaction without statements, to obtain its id.
	PhaseOpen
	// PhasePushToOpen executes statements inside an open transaction.
	PhasePushToOpen
	// PhaseCommit commits an open transaction.
	PhaseCommit
	// PhaseRollback rolls back an open transaction.
	PhaseRollback
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseOpenAndCommit:
		return "OPEN_AND_COMMIT"
	case PhaseOpen:
		return "OPEN"
	case PhasePushToOpen:
		return "PUSH_TO_OPEN"
	case PhaseCommit:
		return "COMMIT"
	case PhaseRollback:
		return "ROLLBACK"
	default:
		return "UNKNOWN"
	}
}

const (
	contentTypeJSON = "application/json; charset=UTF-8"
	acceptJSON      = "application/json; charset=UTF-8"
)

// resultDataContents requests both tabular and graph-shaped content for every
// statement, plus execution statistics.
var resultDataContents = []string{"REST", "GRAPH"}

// BuildRequest serializes statements into the wire request for the given phase.
// endpoint is the resolved transaction endpoint for the target database; txID
// identifies the open transaction for the phases that continue one. Parameter
// normalization happens here, immediately before serialization, so batch
// contents appended at any point before send are reflected as-is.
func BuildRequest(phase Phase, endpoint string, txID int64, statements []Statement) (*transport.Request, error) {
	switch phase {
	case PhaseOpenAndCommit:
		body, err := marshalStatements(statements)
		if err != nil {
			return nil, err
		}
		return transport.NewRequest(http.MethodPost, endpoint+"/commit", bodyHeader(), body), nil

	case PhaseOpen:
		return transport.NewRequest(http.MethodPost, endpoint, acceptHeader(), nil), nil

	case PhasePushToOpen:
		body, err := marshalStatements(statements)
		if err != nil {
			return nil, err
		}
		header := bodyHeader()
		header["X-Stream"] = "true"
		url := fmt.Sprintf("%s/%d", endpoint, txID)
		return transport.NewRequest(http.MethodPost, url, header, body), nil

	case PhaseCommit:
		url := fmt.Sprintf("%s/%d/commit", endpoint, txID)
		return transport.NewRequest(http.MethodPost, url, acceptHeader(), nil), nil

	case PhaseRollback:
		url := fmt.Sprintf("%s/%d", endpoint, txID)
		return transport.NewRequest(http.MethodDelete, url, acceptHeader(), nil), nil

	default:
		return nil, fmt.Errorf("unknown protocol phase %d", int(phase))
	}
}

func marshalStatements(statements []Statement) ([]byte, error) {
	payload := requestPayload{
		Statements: make([]statementPayload, len(statements)),
	}
	for i, s := range statements {
		payload.Statements[i] = statementPayload{
			Statement:          s.Text,
			Parameters:         NormalizeParameters(s.Parameters),
			ResultDataContents: resultDataContents,
			IncludeStats:       true,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TranslationError{
			Message: "failed to encode statements request body",
			Cause:   err,
		}
	}
	return body, nil
}

func bodyHeader() map[string]string {
	return map[string]string{
		"Content-Type": contentTypeJSON,
		"Accept":       acceptJSON,
	}
}

func acceptHeader() map[string]string {
	return map[string]string{
		"Accept": acceptJSON,
	}
}
