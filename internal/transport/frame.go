package transport

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Frame is one unit of the wire protocol, in either direction.
type Frame interface {
	GetType() string
}

// SerializedFrame is the wire format wrapper.
type SerializedFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func Serialize(f Frame) ([]byte, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	wrapper := SerializedFrame{
		Type:    f.GetType(),
		Payload: payload,
	}
	return json.Marshal(wrapper)
}

func Deserialize(jsonBytes []byte) (Frame, error) {
	var wrapper SerializedFrame
	if err := json.Unmarshal(jsonBytes, &wrapper); err != nil {
		return nil, err
	}

	frame, err := createFrame(wrapper.Type)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(wrapper.Payload, frame); err != nil {
		return nil, err
	}

	return frame, nil
}

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all frame types
	RegisterType(&JoinGroup{})
	RegisterType(&LeaveGroup{})
	RegisterType(&SendMessage{})
	RegisterType(&SendTyping{})
	RegisterType(&JoinedGroup{})
	RegisterType(&LeftGroup{})
	RegisterType(&NewMessage{})
	RegisterType(&UserTyping{})
	RegisterType(&ErrorFrame{})
}

func RegisterType(f Frame) {
	typeRegistry[f.GetType()] = reflect.TypeOf(f).Elem()
}

func createFrame(frameType string) (Frame, error) {
	t, ok := typeRegistry[frameType]
	if !ok {
		return nil, fmt.Errorf("unknown frame type: %s", frameType)
	}

	instance := reflect.New(t).Interface()
	return instance.(Frame), nil
}
