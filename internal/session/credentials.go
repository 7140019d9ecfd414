package session

import (
	"fmt"
)

// Credentials is the bundle a tenant authenticates with. The access token is
// not checked against the upstream platform here; an invalid token surfaces
// on the first upstream call that uses it.
type Credentials struct {
	ApplicationID      string `json:"applicationId"`
	ApplicationSecret  string `json:"applicationSecret"`
	AccessToken        string `json:"accessToken"`
	TenantID           string `json:"tenantId"`
	SelectedResourceID string `json:"selectedResourceId,omitempty"`
}

// ValidationError names the first credential field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// requiredFields is checked in order; the first failure is reported.
var requiredFields = []string{"applicationId", "applicationSecret", "accessToken", "tenantId"}

// ParseCredentials validates a decoded JSON object and builds Credentials
// from it. Any subset of fields may be present in the input.
func ParseCredentials(raw map[string]any) (Credentials, error) {
	values := make(map[string]string, len(requiredFields))
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || v == nil {
			return Credentials{}, &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
		}
		s, ok := v.(string)
		if !ok {
			return Credentials{}, &ValidationError{Field: field, Message: fmt.Sprintf("%s must be a string", field)}
		}
		if s == "" {
			return Credentials{}, &ValidationError{Field: field, Message: fmt.Sprintf("%s must not be empty", field)}
		}
		values[field] = s
	}

	creds := Credentials{
		ApplicationID:     values["applicationId"],
		ApplicationSecret: values["applicationSecret"],
		AccessToken:       values["accessToken"],
		TenantID:          values["tenantId"],
	}

	if v, ok := raw["selectedResourceId"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Credentials{}, &ValidationError{Field: "selectedResourceId", Message: "selectedResourceId must be a string"}
		}
		creds.SelectedResourceID = s
	}

	return creds, nil
}

// Validate checks that every required field is non-empty.
func (c Credentials) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"applicationId", c.ApplicationID},
		{"applicationSecret", c.ApplicationSecret},
		{"accessToken", c.AccessToken},
		{"tenantId", c.TenantID},
	} {
		if f.value == "" {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("%s is required", f.name)}
		}
	}
	return nil
}
