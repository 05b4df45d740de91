package urlpath

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bolao-jogos/bolao/he"
)

// idPathValue extracts the "id" path variable from the request and parses it.
//
// On error, an error is reported to the client, and a delay is imposed in case
// the client is sending crap in a tight loop.
func IDPathValue(w http.ResponseWriter, r *http.Request) (int64, error) {
	id, err := idPathValueFromRequest(r)
	if err != nil {
		time.Sleep(10 * time.Second)
		he.SendErrorToHTTPClient(w, "parsing URL", err)
	}
	return id, err
}

func idPathValueFromRequest(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return -1, he.HTTPCodedErrorf(400, "can't parse id from url path: %v", err)
	}
	return id, nil
}

// CodePathValue extracts the "code" path variable as an opaque string.
// Empty codes get the same treatment as unparsable ids.
func CodePathValue(w http.ResponseWriter, r *http.Request) (string, error) {
	code := r.PathValue("code")
	if code == "" {
		time.Sleep(10 * time.Second)
		err := he.HTTPCodedErrorf(400, "no code in url path")
		he.SendErrorToHTTPClient(w, "parsing URL", err)
		return "", err
	}
	return code, nil
}
