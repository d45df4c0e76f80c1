package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region types
// Request is the decoded form of an Infer request.
type Request struct {
	Query    string
	Evidence inference.Evidence
	Order    []string // optional explicit elimination order
}

// Reply is the decoded form of an Infer response.
type Reply struct {
	RunID        string
	Query        string
	Order        []string
	Distribution inference.Distribution
}

var errMalformed = errors.New("malformed request")

// #endregion types

// #region request-codec
// EncodeRequest builds the wire form of req.
func EncodeRequest(req Request) (*structpb.Struct, error) {
	fields := map[string]interface{}{"query": req.Query}
	ev := make(map[string]interface{}, len(req.Evidence))
	for k, v := range req.Evidence {
		ev[k] = v
	}
	fields["evidence"] = ev
	if req.Order != nil {
		fields["order"] = stringsToList(req.Order)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return s, nil
}

// DecodeRequest parses the wire form of an Infer request.
func DecodeRequest(in *structpb.Struct) (Request, error) {
	var req Request
	fields := in.GetFields()

	q, ok := fields["query"]
	if !ok {
		return Request{}, fmt.Errorf("%w: missing query", errMalformed)
	}
	if _, isStr := q.GetKind().(*structpb.Value_StringValue); !isStr {
		return Request{}, fmt.Errorf("%w: query must be a string", errMalformed)
	}
	req.Query = q.GetStringValue()

	req.Evidence = inference.Evidence{}
	if ev, ok := fields["evidence"]; ok {
		sv := ev.GetStructValue()
		if sv == nil {
			if _, isNull := ev.GetKind().(*structpb.Value_NullValue); !isNull {
				return Request{}, fmt.Errorf("%w: evidence must be an object", errMalformed)
			}
		}
		for k, v := range sv.GetFields() {
			if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
				return Request{}, fmt.Errorf("%w: evidence %s must be a string", errMalformed, k)
			}
			req.Evidence[k] = v.GetStringValue()
		}
	}

	if o, ok := fields["order"]; ok {
		order, err := listToStrings(o)
		if err != nil {
			return Request{}, fmt.Errorf("%w: order: %v", errMalformed, err)
		}
		req.Order = order
	}
	return req, nil
}

// #endregion request-codec

// #region reply-codec
// EncodeReply builds the wire form of a successful result.
func EncodeReply(runID string, res inference.Result) (*structpb.Struct, error) {
	dist := make(map[string]interface{}, len(res.Distribution))
	for s, p := range res.Distribution {
		dist[s] = p
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"run_id":       runID,
		"query":        res.Query,
		"order":        stringsToList(res.Order),
		"distribution": dist,
	})
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return out, nil
}

// DecodeReply parses the wire form of an Infer response.
func DecodeReply(in *structpb.Struct) (Reply, error) {
	fields := in.GetFields()
	reply := Reply{
		RunID:        fields["run_id"].GetStringValue(),
		Query:        fields["query"].GetStringValue(),
		Distribution: inference.Distribution{},
	}
	for s, v := range fields["distribution"].GetStructValue().GetFields() {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
			return Reply{}, fmt.Errorf("decode reply: probability for %s is not a number", s)
		}
		reply.Distribution[s] = v.GetNumberValue()
	}
	if o, ok := fields["order"]; ok {
		order, err := listToStrings(o)
		if err != nil {
			return Reply{}, fmt.Errorf("decode reply: order: %w", err)
		}
		reply.Order = order
	}
	return reply, nil
}

// #endregion reply-codec

// #region helpers
func stringsToList(xs []string) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func listToStrings(v *structpb.Value) ([]string, error) {
	lv := v.GetListValue()
	if lv == nil {
		return nil, errors.New("not a list")
	}
	out := make([]string, 0, len(lv.GetValues()))
	for i, item := range lv.GetValues() {
		if _, isStr := item.GetKind().(*structpb.Value_StringValue); !isStr {
			return nil, fmt.Errorf("item %d is not a string", i)
		}
		out = append(out, item.GetStringValue())
	}
	return out, nil
}

// #endregion helpers
