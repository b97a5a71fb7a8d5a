// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"emperror.dev/errors"
	"github.com/aws/smithy-go"
)

// Errors that can be returned by this package. Since most of them are
// returned wrapped, use errors.Is() to check for them.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrCIDRRequired   = errors.New("a CIDR block is required to restrict domain access")
	ErrInvalidConfig  = errors.New("invalid provisioning configuration")
	ErrDomainDeleting = errors.New("search domain is still being deleted")
	ErrNilMeasures    = errors.New("measures cannot be nil")
	ErrMissingClient  = errors.New("a required cloud client is missing")
	ErrUnknownUnit    = errors.New("unit is not part of the project")
)

var (
	errTargetsRejected = errors.New("schedule rejected the function target")
	errNoRootResource  = errors.New("ingest api has no root resource")
	errMissingArn      = errors.New("cloud response is missing the resource arn")
)

const errWrappedFmt = "%w: %s"

// notFoundCodes are the service error codes meaning the resource does not
// exist.
var notFoundCodes = map[string]bool{
	"ResourceNotFoundException": true,
	"NoSuchEntity":              true,
	"NotFoundException":         true,
}

// errorCode returns the service error code of err, or the empty string when
// err did not come from a service.
func errorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) || notFoundCodes[errorCode(err)]
}

func isAlreadyExists(err error) bool {
	switch errorCode(err) {
	case "EntityAlreadyExists", "ResourceAlreadyExistsException", "ResourceConflictException", "ConflictException":
		return true
	}
	return false
}
