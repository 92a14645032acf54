package oauthmodel

// CodeRequest is the JSON body POSTed to exchange a tracker authorization code.
type CodeRequest struct {
	// Code is the single-use authorization code from the redirect.
	Code string `json:"code"`
}
