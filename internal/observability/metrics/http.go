package metrics

import (
	"strconv"
	"time"

	"github.com/clycites/clygate/internal/observability/statsd"
)

// EmitHTTPRequest emits a request timing tagged by method and status.
func EmitHTTPRequest(sink statsd.Sink, method string, status int, d time.Duration) {
	if sink == nil {
		return
	}
	sink.Timing("http.request", d, map[string]string{
		"method": method,
		"status": strconv.Itoa(status),
	})
}
