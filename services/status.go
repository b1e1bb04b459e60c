package services

import (
	"strings"

	"linkrite/models"
)

var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusPending:  {models.StatusAccepted, models.StatusApproved, models.StatusRejected, models.StatusCompleted},
	models.StatusAccepted: {models.StatusCompleted, models.StatusRejected},
	models.StatusApproved: {models.StatusCompleted, models.StatusRejected},
}

// ParseStatus accepts any known status, case-insensitively.
func ParseStatus(s string) (models.ApplicationStatus, bool) {
	st := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case models.StatusPending, models.StatusAccepted, models.StatusApproved,
		models.StatusRejected, models.StatusCompleted:
		return st, true
	}
	return "", false
}

// CanTransition reports whether an author may move an application from one status to another.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
