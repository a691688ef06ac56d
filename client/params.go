// File: client/params.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request parameter types for the streaming endpoints.

package client

import (
	"strconv"
	"strings"
)

// UserID identifies a user account in follow filters.
type UserID uint64

// FilterLevel controls server-side filtering of low-value messages.
// Custom values pass through unchanged.
type FilterLevel string

const (
	FilterLevelNone   FilterLevel = ""
	FilterLevelLow    FilterLevel = "low"
	FilterLevelMedium FilterLevel = "medium"
)

// With selects whose activity a user/site stream includes.
// Custom values pass through unchanged.
type With string

const (
	WithUser      With = "user"
	WithFollowing With = "following"
)

// BoundingBox is one geographic filter box: south-west corner first,
// north-east corner second, longitude before latitude, matching the
// wire order of the locations parameter.
type BoundingBox struct {
	SouthWestLon float64
	SouthWestLat float64
	NorthEastLon float64
	NorthEastLat float64
}

func joinUserIDs(ids []UserID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func joinLocations(boxes []BoundingBox) string {
	parts := make([]string, 0, len(boxes)*4)
	for _, b := range boxes {
		for _, f := range []float64{b.SouthWestLon, b.SouthWestLat, b.NorthEastLon, b.NorthEastLat} {
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return strings.Join(parts, ",")
}
