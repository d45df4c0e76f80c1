package rpc

import (
	"context"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region client-struct
// Client calls a remote Inference service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the Inference service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close does not close cc.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region infer
// Infer runs a query remotely. Inference errors come back wrapping the same
// sentinel errors the engine returns.
func (c *Client) Infer(ctx context.Context, req Request) (Reply, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return Reply{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InferMethod, in, out); err != nil {
		return Reply{}, fromStatus(err)
	}
	return DecodeReply(out)
}

// #endregion infer

// #region status
var sentinels = map[string]error{
	"invalid_evidence":        inference.ErrInvalidEvidence,
	"unknown_variable":        inference.ErrUnknownVariable,
	"invalid_order":           inference.ErrInvalidOrder,
	"no_relevant_factors":     inference.ErrNoRelevantFactors,
	"degenerate_distribution": inference.ErrDegenerateDistribution,
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("infer rpc: %w", err)
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorInfoDomain {
			continue
		}
		if sentinel, ok := sentinels[info.GetReason()]; ok {
			return fmt.Errorf("infer rpc: %w: %s", sentinel, st.Message())
		}
	}
	return fmt.Errorf("infer rpc: %w", err)
}

// #endregion status
