// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"fmt"
	"strings"
)

// Endpoint is a region and service scoped AWS host.
type Endpoint struct {
	Host    string
	Region  string
	Service string
}

// ParseEndpoint derives the signing region and service from an AWS endpoint
// host of the form name.region.service.amazonaws.com. They are the second
// and third dot separated tokens of the host.
func ParseEndpoint(host string) (Endpoint, error) {
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")

	tokens := strings.Split(host, ".")
	if len(tokens) < 3 || tokens[1] == "" || tokens[2] == "" {
		return Endpoint{}, fmt.Errorf(errWrappedFmt, ErrInvalidEndpoint, host)
	}
	return Endpoint{
		Host:    host,
		Region:  tokens[1],
		Service: tokens[2],
	}, nil
}
