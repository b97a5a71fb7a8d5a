// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// nameColumn is the position of the index name in a _cat/indices row.
const nameColumn = 2

var datedIndex = regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})$`)

// Index is a single row of the indices listing.
type Index struct {
	Name string

	// Date is the partition date encoded in the name. Only meaningful
	// when Dated is true.
	Date  time.Time
	Dated bool
}

// ParseIndex extracts the trailing YYYY.MM.DD date of name. Names without
// a valid date are returned undated.
func ParseIndex(name string) Index {
	idx := Index{Name: name}
	m := datedIndex.FindStringSubmatch(name)
	if m == nil {
		return idx
	}
	d, err := time.Parse("2006.1.2", m[1]+"."+m[2]+"."+m[3])
	if err != nil {
		return idx
	}
	idx.Date = d
	idx.Dated = true
	return idx
}

// ParseIndices returns the index names of a verbose _cat/indices table. The
// header row and rows too short to carry a name are skipped.
func ParseIndices(table string) []string {
	var names []string
	s := bufio.NewScanner(strings.NewReader(table))
	first := true
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if first {
			first = false
			if len(fields) > nameColumn && fields[nameColumn] == "index" {
				continue
			}
		}
		if len(fields) <= nameColumn {
			continue
		}
		names = append(names, fields[nameColumn])
	}
	return names
}

// AgeDays is the number of whole days between the index date and the UTC
// calendar date of now.
func AgeDays(date, now time.Time) int {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(date).Hours() / 24)
}

// Expired returns the dated indices older than retentionDays, in input order.
func Expired(names []string, now time.Time, retentionDays int) []Index {
	var out []Index
	for _, n := range names {
		idx := ParseIndex(n)
		if !idx.Dated {
			continue
		}
		if AgeDays(idx.Date, now) > retentionDays {
			out = append(out, idx)
		}
	}
	return out
}
