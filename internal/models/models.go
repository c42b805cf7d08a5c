// package models defines the data model for the bot dashboard
package models

// Model defines the base interface for persisted entities.
type Model interface {
	ID() string      // ID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}
