package client

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

const (
	frameKindMsg   = "msg"
	frameKindState = "state"
)

// frame is the decoded form of a structpb.Struct exchanged between peers.
type frame struct {
	Kind  string
	ID    string
	Text  string
	State models.DeliveryState
}

func (f frame) proto() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"kind": structpb.NewStringValue(f.Kind),
		"id":   structpb.NewStringValue(f.ID),
	}
	switch f.Kind {
	case frameKindMsg:
		fields["text"] = structpb.NewStringValue(f.Text)
	case frameKindState:
		fields["state"] = structpb.NewStringValue(string(f.State))
	}
	return &structpb.Struct{Fields: fields}
}

func frameFromProto(s *structpb.Struct) frame {
	get := func(k string) string { return s.GetFields()[k].GetStringValue() }
	return frame{
		Kind:  get("kind"),
		ID:    get("id"),
		Text:  get("text"),
		State: models.DeliveryState(get("state")),
	}
}
