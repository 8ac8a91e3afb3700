package rpc

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the envelope every book service method answers with.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

// Encode converts any JSON-marshalable value into a protobuf Struct.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// Decode fills out from a protobuf Struct.
func Decode(s *structpb.Struct, out interface{}) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func NewResponse(success bool, message string, data interface{}) (*structpb.Struct, error) {
	body := map[string]interface{}{
		"success": success,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return Encode(body)
}

func DecodeResponse(s *structpb.Struct) (*Response, error) {
	var resp Response
	if err := Decode(s, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecodeData unpacks the response payload into out. A missing payload
// leaves out untouched.
func (r *Response) DecodeData(out interface{}) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}
