package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/sociolab/internal/shared/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	PostCreated = "post.created"
	PostUpdated = "post.updated"
	PostDeleted = "post.deleted"
)

const PostTopic = "post"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		PostCreated: {
			Type:  reflect.TypeOf(Post{}),
			Topic: PostTopic,
		},
		PostUpdated: {
			Type:  reflect.TypeOf(Post{}),
			Topic: PostTopic,
		},
		PostDeleted: {
			Type:  reflect.TypeOf(Post{}),
			Topic: PostTopic,
		},
	}
}
