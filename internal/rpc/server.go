package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/eval"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/logging"
)

// #region server-struct
// Server implements InferenceServer over one Engine. The engine is shared by
// all RPCs; each query builds its own factors.
type Server struct {
	engine  *inference.Engine
	harness *eval.EvalHarness
	store   *history.Store
	logger  *log.Logger
	metrics *Metrics
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStore records every query in store.
func WithStore(store *history.Store) ServerOption {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the server logger.
func WithLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a Server over engine.
func NewServer(engine *inference.Engine, opts ...ServerOption) *Server {
	s := &Server{
		engine:  engine,
		harness: eval.NewEvalHarness(eval.DefaultEvalConfig()),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches the service to r.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	RegisterInferenceServer(r, s)
}

// #endregion server-struct

// #region infer
// Infer answers one query.
func (s *Server) Infer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()

	req, err := DecodeRequest(in)
	if err != nil {
		s.metrics.observe("malformed", time.Since(start))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var res inference.Result
	if req.Order != nil {
		res, err = s.engine.RunWithOrder(req.Query, req.Evidence, req.Order)
	} else {
		res, err = s.engine.Run(req.Query, req.Evidence)
	}

	outcome := logging.OutcomeOK
	reason := ""
	if err != nil {
		outcome = inference.ErrorKind(err)
		reason = err.Error()
	} else if check := s.harness.Run(res.Distribution); !check.Passed {
		s.metrics.evalFailed()
		s.logger.Warn("distribution failed validation", "query", req.Query, "reason", check.Reason)
		reason = check.Reason
	}

	runID := s.record(req, res, err, outcome, reason)
	s.metrics.observe(outcome, time.Since(start))

	if err != nil {
		s.logger.Info("query rejected", "query", req.Query, "kind", outcome, "err", err)
		return nil, toStatus(err)
	}
	s.logger.Debug("query answered", "query", req.Query, "order", res.Order, "run_id", runID)
	return EncodeReply(runID, res)
}

func (s *Server) record(req Request, res inference.Result, err error, outcome, reason string) string {
	if s.store == nil {
		return ""
	}
	run, recErr := s.store.RecordRun(history.FromResult(req.Query, req.Evidence, inference.PlannerLabel(s.engine.Planner(), req.Order), res, err))
	if recErr != nil {
		s.logger.Error("record run", "err", recErr)
		return ""
	}
	logErr := logging.LogQuery(s.store.DB(), logging.QueryEntry{
		RunID:       run.RunID,
		TriggerType: logging.TriggerRPC,
		Outcome:     outcome,
		Reason:      reason,
	})
	if logErr != nil {
		s.logger.Error("log query", "run_id", run.RunID, "err", logErr)
	}
	return run.RunID
}

// #endregion infer

// #region status
func toStatus(err error) error {
	kind := inference.ErrorKind(err)
	code := codes.Internal
	switch {
	case errors.Is(err, inference.ErrInvalidEvidence), errors.Is(err, inference.ErrInvalidOrder):
		code = codes.InvalidArgument
	case errors.Is(err, inference.ErrUnknownVariable):
		code = codes.NotFound
	case errors.Is(err, inference.ErrNoRelevantFactors), errors.Is(err, inference.ErrDegenerateDistribution):
		code = codes.FailedPrecondition
	}
	st := status.New(code, err.Error())
	if withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{Reason: kind, Domain: errorInfoDomain}); detailErr == nil {
		st = withInfo
	}
	return st.Err()
}

// #endregion status

// #region interceptor
// LoggingInterceptor logs each unary call with its status code and duration.
func LoggingInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc", "method", info.FullMethod, "code", status.Code(err), "elapsed", time.Since(start))
		return resp, err
	}
}

// #endregion interceptor
