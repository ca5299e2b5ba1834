package models

import "github.com/sirupsen/logrus"

// StageReport tallies per-record outcomes for one phase of a pipeline stage.
type StageReport struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// Total returns the number of records the phase looked at.
func (r *StageReport) Total() int {
	return r.Created + r.Skipped + r.Errored
}

// Log emits the phase summary at Info level.
func (r *StageReport) Log(log *logrus.Logger, phase string) {
	log.WithFields(logrus.Fields{
		"created": r.Created,
		"skipped": r.Skipped,
		"errored": r.Errored,
	}).Infof("%s complete", phase)
}
