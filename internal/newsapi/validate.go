package newsapi

import (
	"encoding/json"
)

type errorEnvelope struct {
	Status  *string `json:"status"`
	Code    *string `json:"code"`
	Message *string `json:"message"`
}

// decodeErrorEnvelope reports whether body is a {status, code?, message?}
// object.
func decodeErrorEnvelope(body []byte) (errorEnvelope, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errorEnvelope{}, false
	}
	if env.Status == nil {
		return errorEnvelope{}, false
	}
	return env, true
}

// Validate classifies a response. 2xx passes; anything else is ApiRejected
// when the body is an error envelope with status "error", otherwise a
// TransportFailure carrying the status code.
func Validate(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	if env, ok := decodeErrorEnvelope(body); ok && *env.Status == "error" {
		var code, message string
		if env.Code != nil {
			code = *env.Code
		}
		if env.Message != nil {
			message = *env.Message
		}
		return APIRejected(status, code, message)
	}

	return TransportStatus(status)
}
