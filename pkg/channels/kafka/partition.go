package kafka

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/workdesk/workdesk/pkg/events"
)

func partitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(events.EventMetadataKey), nil
}
