package errors

import (
	"errors"
	"fmt"
)

// upstreamStatus is implemented by errors that carry a remote HTTP status.
type upstreamStatus interface {
	StatusCode() int
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int `json:"upstream_status,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream upstreamStatus
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.StatusCode()
	}

	return d
}
