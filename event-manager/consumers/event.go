package consumers

import (
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"
)

type Event struct {
	Id   string
	Type string
	Data []byte
}

func EventFromMessage(msg messaging.Message) Event {
	return Event{
		Id:   msg.ID,
		Type: msg.Type(),
		Data: msg.Data,
	}
}
