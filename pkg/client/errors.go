package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError is an HTTP Error
type HTTPError struct {
	StatusCode int         `json:"-"`
	Message    interface{} `json:"message"`
}

func (err HTTPError) Error() string {
	return fmt.Sprintf("%v", err.Message)
}

// ErrNotFound is the error returned when something requested could not be found.
type ErrNotFound struct {
	what string
}

func (err ErrNotFound) Error() string {
	return err.what
}

// ErrBadRequest is the error returned when there is something wrong with the request.
type ErrBadRequest struct {
	error
}

func (err ErrBadRequest) Error() string {
	return err.error.Error()
}

// ErrConflict is the error returned when the operation is not permitted by the pipeline current state.
type ErrConflict struct {
	error
}

func (err ErrConflict) Error() string {
	return err.error.Error()
}

func errorFromResponse(resp *http.Response) error {
	httpErr := HTTPError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&httpErr); err != nil || httpErr.Message == nil {
		httpErr.Message = http.StatusText(resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound{httpErr.Error()}
	case http.StatusBadRequest:
		return ErrBadRequest{httpErr}
	case http.StatusConflict:
		return ErrConflict{httpErr}
	}
	return httpErr
}
