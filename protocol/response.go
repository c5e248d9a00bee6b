package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/graphtide/neohttp/transport"
)

// Translate interprets a 2xx response body against the submitted statements.
//
// A non-empty errors array in the body is a soft failure: the server accepted
// the HTTP request but one or more statements failed inside the transaction.
// That case yields a *ServerError built from errors[0], with no transport
// cause. Otherwise results[i] is matched to submitted[i] by position; fewer
// results than statements is a *TranslationError.
func Translate(resp *transport.Response, submitted []Statement) ([]Result, error) {
	var decoded transactionResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, &TranslationError{
			Message: "failed to decode response body",
			Cause:   err,
		}
	}

	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		return nil, &ServerError{
			Code:    first.Code,
			Message: first.Message,
		}
	}

	if len(decoded.Results) < len(submitted) {
		return nil, &TranslationError{
			Message: fmt.Sprintf("result count mismatch: %d statements submitted, %d results returned",
				len(submitted), len(decoded.Results)),
		}
	}

	results := make([]Result, len(submitted))
	for i := range submitted {
		results[i] = decoded.Results[i]
		results[i].Tag = submitted[i].Tag
	}
	return results, nil
}

// TranslateFailure upgrades a transport failure into a *ServerError when its
// response body carries the server's structured error shape. The original
// error is kept as the cause. When the body lacks that shape, the transport
// failure is returned unchanged; no information is invented.
func TranslateFailure(err error) error {
	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	var decoded transactionResponse
	if jsonErr := json.Unmarshal(httpErr.Body, &decoded); jsonErr != nil || len(decoded.Errors) == 0 {
		return err
	}

	first := decoded.Errors[0]
	return &ServerError{
		Code:    first.Code,
		Message: first.Message,
		Cause:   err,
	}
}

// ExtractTransactionID recovers the server-assigned transaction id from an
// open-transaction response: from the Location header when present, else from
// the commit URL in the body (".../tx/{id}/commit").
func ExtractTransactionID(resp *transport.Response) (int64, error) {
	if location := resp.HeaderValue("Location"); location != "" {
		if id, err := idFromPath(location); err == nil {
			return id, nil
		}
	}

	var decoded transactionResponse
	if err := json.Unmarshal(resp.Body, &decoded); err == nil && decoded.Commit != "" {
		commit := strings.TrimSuffix(strings.TrimRight(decoded.Commit, "/"), "/commit")
		if id, err := idFromPath(commit); err == nil {
			return id, nil
		}
	}

	return 0, &TranslationError{
		Message: "open-transaction response carries no transaction id",
	}
}

func idFromPath(url string) (int64, error) {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("no path segments in %q", url)
	}
	return strconv.ParseInt(trimmed[idx+1:], 10, 64)
}
