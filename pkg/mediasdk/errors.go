package mediasdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// IsCode reports whether err is a service error envelope whose first error
// carries code.
func IsCode(err error, code string) bool {
	var resp svcerr.Response
	if errors.As(err, &resp) {
		return resp.FirstCode() == code
	}
	return false
}

// StatusCode returns the HTTP status of a service error, or 0.
func StatusCode(err error) int {
	var resp svcerr.Response
	if errors.As(err, &resp) {
		return resp.Status
	}
	return 0
}

// parseErrorResponse decodes the error envelope. Bodies that are not an
// envelope (a proxy page, say) still produce an error with the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var env svcerr.Response
	if err := json.Unmarshal(body, &env); err != nil || len(env.Errors) == 0 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	env.Status = resp.StatusCode
	return env
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
