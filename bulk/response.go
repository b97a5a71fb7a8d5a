// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrItemsFailed = errors.New("bulk request had failed items")

// Result summarizes a _bulk response.
type Result struct {
	Attempted  int
	Successful int
	Failed     int
}

type response struct {
	Errors bool                        `json:"errors"`
	Items  []map[string]responseStatus `json:"items"`
}

type responseStatus struct {
	Status int `json:"status"`
}

// ParseResponse counts the items of a _bulk response. ErrItemsFailed is
// returned with the result when any item has a status of 300 or more.
func ParseResponse(body []byte) (Result, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return Result{}, fmt.Errorf("failed unmarshaling bulk response: %w", err)
	}
	result := Result{Attempted: len(r.Items)}
	for _, item := range r.Items {
		for _, s := range item {
			if s.Status >= 300 {
				result.Failed++
			}
		}
	}
	result.Successful = result.Attempted - result.Failed
	if result.Failed > 0 || r.Errors {
		return result, fmt.Errorf("%w: %d of %d", ErrItemsFailed, result.Failed, result.Attempted)
	}
	return result, nil
}
