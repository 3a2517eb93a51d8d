package project

import (
	"time"
)

// Project is a tracked engagement. StartDate anchors M-notation month
// resolution; it can be missing on legacy records.
type Project struct {
	ID         string
	Name       string
	StartDate  *time.Time
	BaselineID string
	Currency   string
}
