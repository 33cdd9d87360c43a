package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a posted campus event stored in MongoDB
type Event struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	Refer     string             `json:"refer,omitempty" bson:"refer,omitempty"`
	Tags      []string           `json:"tags" bson:"tags"`
	ImageKeys []string           `json:"image_keys,omitempty" bson:"image_keys,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateEventRequest is the event posting form.
type CreateEventRequest struct {
	Title string `form:"title" validate:"required,min=1,max=200"`
	Body  string `form:"body" validate:"required,min=1,max=5000"`
	Refer string `form:"refer" validate:"omitempty,url"`
	Tags  string `form:"tags" validate:"max=500"`
}
