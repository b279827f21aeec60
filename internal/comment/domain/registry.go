package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/sociolab/internal/shared/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"
)

const CommentTopic = "comment"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		CommentCreated: {
			Type:  reflect.TypeOf(Comment{}),
			Topic: CommentTopic,
		},
		CommentUpdated: {
			Type:  reflect.TypeOf(Comment{}),
			Topic: CommentTopic,
		},
		CommentDeleted: {
			Type:  reflect.TypeOf(Comment{}),
			Topic: CommentTopic,
		},
	}
}
