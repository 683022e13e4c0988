package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/utils"
)

const maxBodyBytes = 1 << 20

// DecodeValidBody reads a JSON body into B and validates it.
func DecodeValidBody[B any](w http.ResponseWriter, r *http.Request) (B, error) {
	var requestBody B
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&requestBody); err != nil {
		return requestBody, fmt.Errorf("%w: %w", utils.ErrInvalidInput, err)
	}
	if err := validate.Struct(requestBody); err != nil {
		return requestBody, fmt.Errorf("%w: %w", utils.ErrInvalidInput, err)
	}
	return requestBody, nil
}

// errorMessages overrides the default message for a sentinel on one route.
type errorMessages map[error]string

// writeServiceError maps err onto a status code and writes it. Causes of
// unexpected errors are logged and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error, messages errorMessages) {
	status, message := http.StatusInternalServerError, utils.GENERIC_SERVER_ERROR
	for _, m := range statusMap {
		if errors.Is(err, m.err) {
			status, message = m.status, m.message
			if override, ok := messages[m.err]; ok {
				message = override
			}
			break
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	utils.WriteMessage(w, status, message)
}

var statusMap = []struct {
	err     error
	status  int
	message string
}{
	{utils.ErrInvalidInput, http.StatusBadRequest, utils.MISSING_REQUEST_DATA},
	{utils.ErrWeakPassword, http.StatusBadRequest, utils.WEAK_PASSWORD_ERROR},
	{utils.ErrInvalidCredentials, http.StatusBadRequest, utils.INVALID_CREDENTIALS_ERROR},
	{utils.ErrConflict, http.StatusConflict, utils.USER_EXISTS_ERROR},
	{utils.ErrNotFound, http.StatusNotFound, utils.USER_NOT_FOUND_ERROR},
	{utils.ErrRateLimited, http.StatusTooManyRequests, utils.TOO_MANY_ATTEMPTS_ERROR},
	{utils.ErrInvalidToken, http.StatusUnauthorized, utils.UNAUTHORIZED_ERROR},
	{utils.ErrUnauthorized, http.StatusUnauthorized, utils.UNAUTHORIZED_ERROR},
	{utils.ErrForbidden, http.StatusForbidden, utils.FORBIDDEN_ERROR},
}
