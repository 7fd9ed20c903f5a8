package domain

import (
	"time"

	smp "github.com/totegamma/smp"
)

// ChangeEvent is published on the change feed after a committed write.
type ChangeEvent struct {
	Entity         string          `json:"entity"`
	Action         string          `json:"action"`
	ParticipantID  smp.Identifier  `json:"participantId"`
	DocumentTypeID *smp.Identifier `json:"documentTypeId,omitempty"`
	Time           time.Time       `json:"time"`
}
