// Package model defines domain entities for the application.
package model

import "time"

// Meetup is a validated meetup. It is only ever produced by the meetup
// contract and is never mutated afterwards.
type Meetup struct {
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description" yaml:"description"`
	Date          time.Time `json:"date" yaml:"date"`
	Location      string    `json:"location" yaml:"location"`
	LocationLink  string    `json:"locationLink" yaml:"locationLink"`
	Organizer     string    `json:"organizer" yaml:"organizer"`
	OrganizerLink string    `json:"organizerLink" yaml:"organizerLink"`
	SignupLink    string    `json:"signupLink" yaml:"signupLink"`
}

// FormShape identifies which submission contract a meetup came through.
type FormShape string

const (
	// FormShapeHuman is a submission with separate date and time strings.
	FormShapeHuman FormShape = "human"
	// FormShapeRobot is a submission with a single ISO-8601 timestamp.
	FormShapeRobot FormShape = "robot"
)

// IsValid checks if the shape is known.
func (s FormShape) IsValid() bool {
	return s == FormShapeHuman || s == FormShapeRobot
}
