// Package nsapi implements the authenticated request engine for the
// NetSuite REST platform: the OAuth2 token lifecycle, a resilient request
// executor with transparent token renewal, and restlet-backed file transfer.
package nsapi

import "fmt"

// ConfigurationError reports a missing mandatory credential or a feature
// invoked without its required configuration. It is surfaced immediately and
// never retried.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("nsapi: missing required configuration: %s", e.Missing)
}

// AuthExchangeError reports a failed exchange against the OAuth2 token
// endpoint, for either grant kind. Message carries the remote error when the
// endpoint returned one, or a generalized transport/parse description.
type AuthExchangeError struct {
	Grant   string
	Message string
	Err     error
}

func (e *AuthExchangeError) Error() string {
	return "nsapi: " + e.Message
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// AuthenticationError reports a request that stayed unauthorized after a
// token refresh. It ends the inner attempt but still counts toward the
// executor's outer retry budget.
type AuthenticationError struct {
	Status string
}

func (e *AuthenticationError) Error() string {
	return "nsapi: authentication failed: " + e.Status
}

// RequestError reports an application-level error encoded in a response
// body, or a body that could not be parsed at all.
type RequestError struct {
	Method  string
	URL     string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nsapi: %s %s failed: %s", e.Method, e.URL, e.Message)
	}

	return fmt.Sprintf("nsapi: %s %s failed", e.Method, e.URL)
}

func (e *RequestError) Unwrap() error { return e.Err }

// MaxRetriesError reports a logical call that exhausted its attempt budget.
// Last is the error from the final attempt.
type MaxRetriesError struct {
	Method   string
	URL      string
	Attempts int
	Last     error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("nsapi: %s %s failed after %d attempts", e.Method, e.URL, e.Attempts)
}

func (e *MaxRetriesError) Unwrap() error { return e.Last }

// DownloadError reports a file download failure. Detail carries the remote
// response when the restlet rejected the call.
type DownloadError struct {
	FileID string
	Detail string
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("nsapi: downloading file %s: %s", e.FileID, e.Detail)
	}

	return fmt.Sprintf("nsapi: downloading file %s failed", e.FileID)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// UploadError reports a file upload failure.
type UploadError struct {
	Name    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nsapi: uploading %s failed: %s", e.Name, e.Message)
	}

	return fmt.Sprintf("nsapi: uploading %s failed", e.Name)
}

func (e *UploadError) Unwrap() error { return e.Err }
