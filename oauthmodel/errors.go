package oauthmodel

import "fmt"

// ErrorResponse carries the error fields providers echo back through the proxy.
type ErrorResponse struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (e ErrorResponse) HasError() bool {
	return e.Error != ""
}

func (e ErrorResponse) String() string {
	if e.ErrorDescription == "" {
		return e.Error
	}
	return fmt.Sprintf("%s: %s", e.Error, e.ErrorDescription)
}
