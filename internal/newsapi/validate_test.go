package newsapi

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    Kind
		wantStatus  int
		wantMessage string
		wantCode    string
	}{
		{name: "200", status: 200, body: `{"status":"ok"}`},
		{name: "204 empty body", status: 204, body: ``},
		{name: "299", status: 299, body: `not json`},
		{
			name:        "401 error envelope",
			status:      401,
			body:        `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`,
			wantKind:    KindAPIRejected,
			wantStatus:  401,
			wantMessage: "Your API key is invalid.",
			wantCode:    "apiKeyInvalid",
		},
		{
			name:        "error envelope without message",
			status:      429,
			body:        `{"status":"error","code":"rateLimited"}`,
			wantKind:    KindAPIRejected,
			wantStatus:  429,
			wantMessage: DefaultRejectMessage,
			wantCode:    "rateLimited",
		},
		{
			name:       "envelope with non-error status",
			status:     500,
			body:       `{"status":"ok"}`,
			wantKind:   KindTransport,
			wantStatus: 500,
		},
		{
			name:       "html body",
			status:     502,
			body:       `<html>Bad Gateway</html>`,
			wantKind:   KindTransport,
			wantStatus: 502,
		},
		{
			name:       "no status field",
			status:     400,
			body:       `{"message":"bad"}`,
			wantKind:   KindTransport,
			wantStatus: 400,
		},
		{
			name:       "redirect",
			status:     301,
			body:       ``,
			wantKind:   KindTransport,
			wantStatus: 301,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.status, []byte(tt.body))
			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Validate() error = %v, want *Error", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if tt.wantMessage != "" && apiErr.Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", apiErr.Error(), tt.wantMessage)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestDecodeErrorEnvelope(t *testing.T) {
	if _, ok := decodeErrorEnvelope([]byte(`{"status":"error"}`)); !ok {
		t.Error("expected envelope with only status to decode")
	}
	if _, ok := decodeErrorEnvelope([]byte(`{"status":5}`)); ok {
		t.Error("non-string status should not decode")
	}
	if _, ok := decodeErrorEnvelope([]byte(`[]`)); ok {
		t.Error("array should not decode")
	}
}
