package models

import (
	"fmt"
	"time"
)

// Condition represents the physical condition of a survey marker.
// The value is the single-letter wire code used by the remote service,
// both in log uploads and in the bulk status feed.
type Condition string

const (
	ConditionGood            Condition = "G"
	ConditionSlightlyDamaged Condition = "S"
	ConditionDamaged         Condition = "D"
	ConditionToppled         Condition = "T"
	ConditionMoved           Condition = "M"
	ConditionRemains         Condition = "R"
	ConditionPossiblyMissing Condition = "Q"
	ConditionMissing         Condition = "X"
	ConditionVisited         Condition = "V" // visited but couldn't reach the marker
	ConditionNotLogged       Condition = "N"
	ConditionUnknown         Condition = "U"
)

// ParseCondition validates a wire code letter from user input or the bulk feed.
func ParseCondition(code string) (Condition, error) {
	switch c := Condition(code); c {
	case ConditionGood, ConditionSlightlyDamaged, ConditionDamaged,
		ConditionToppled, ConditionMoved, ConditionRemains,
		ConditionPossiblyMissing, ConditionMissing, ConditionVisited,
		ConditionNotLogged, ConditionUnknown:
		return c, nil
	default:
		return "", fmt.Errorf("unknown condition code %q", code)
	}
}

// String returns a human-readable name for the condition.
func (c Condition) String() string {
	switch c {
	case ConditionGood:
		return "good"
	case ConditionSlightlyDamaged:
		return "slightly damaged"
	case ConditionDamaged:
		return "damaged"
	case ConditionToppled:
		return "toppled"
	case ConditionMoved:
		return "moved"
	case ConditionRemains:
		return "remains"
	case ConditionPossiblyMissing:
		return "possibly missing"
	case ConditionMissing:
		return "missing"
	case ConditionVisited:
		return "visited (unreachable)"
	case ConditionNotLogged:
		return "not logged"
	default:
		return "unknown"
	}
}

// PhotoSubject categorizes what a queued photo shows.
type PhotoSubject string

const (
	SubjectMarker       PhotoSubject = "T" // the marker itself
	SubjectFlushBracket PhotoSubject = "F"
	SubjectPeople       PhotoSubject = "P"
	SubjectLandscape    PhotoSubject = "L"
	SubjectOther        PhotoSubject = "O"
)

// ParsePhotoSubject validates a subject code letter.
func ParsePhotoSubject(code string) (PhotoSubject, error) {
	switch s := PhotoSubject(code); s {
	case SubjectMarker, SubjectFlushBracket, SubjectPeople, SubjectLandscape, SubjectOther:
		return s, nil
	default:
		return "", fmt.Errorf("unknown photo subject %q", code)
	}
}

// VisitTime is a visit date with an optional time-of-day component.
// SendTime records whether the hour/minute should be transmitted; a visit
// logged as "some time yesterday" keeps the date but sends no clock time.
type VisitTime struct {
	Date     time.Time
	SendTime bool
}

// PendingLogEntry is one user-authored visit record awaiting upload.
// At most one exists per marker; recording a new visit for the same marker
// replaces the queued entry (delete-then-insert, never merge).
type PendingLogEntry struct {
	MarkerID      int64
	Visited       VisitTime
	GridRef       string
	Note          string
	FBNumber      string // flush bracket number, if the marker carries one
	Condition     Condition
	Score         int // 1-10, half-star units
	FlagForAdmins bool
	FlagForUsers  bool
	CreatedAt     time.Time
}

// PendingPhoto is a photo attached to a marker, awaiting upload.
// RemoteLogID stays 0 until the marker's pending log has been acknowledged
// by the server, at which point every photo row for that marker is patched
// in one bulk update. A photo may be queued with no pending log at all when
// the server already holds an acknowledged log for the marker.
type PendingPhoto struct {
	PhotoID     int64 // local primary key
	MarkerID    int64
	RemoteLogID int64
	ThumbPath   string
	FullPath    string
	Caption     string
	Description string
	Subject     PhotoSubject
	IsPublic    bool
	CreatedAt   time.Time
}

// MarkerState is one row of the marker read cache: the locally cached,
// non-authoritative "logged condition" for a marker.
type MarkerState struct {
	MarkerID  int64
	Condition Condition
}

// Score bounds for a visit log.
const (
	MinScore = 1
	MaxScore = 10
)

// ValidScore reports whether a half-star score is in range.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
