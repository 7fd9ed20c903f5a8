package domain

import (
	"time"

	smp "github.com/totegamma/smp"
)

// User owns service groups and authenticates with HTTP Basic credentials.
type User struct {
	ID           string `json:"id"`
	PasswordHash string `json:"-"`
}

// ReconciliationFault records an SML call that left the locator out of sync
// with local storage and needs an operator.
type ReconciliationFault struct {
	ParticipantID smp.Identifier `json:"participantId"`
	Operation     string         `json:"operation"`
	Reason        string         `json:"reason"`
	Time          time.Time      `json:"time"`
}

const (
	OperationRegister   = "register"
	OperationDeregister = "deregister"
)
