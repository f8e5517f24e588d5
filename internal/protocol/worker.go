package protocol

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"go.uber.org/zap"
)

// DatasetLoader resolves an init location to a dataset.
type DatasetLoader func(ctx context.Context, location string) (*models.Dataset, error)

// Observer receives the outcome of every handled message.
type Observer interface {
	Observe(msgType string, elapsed time.Duration, cacheHit bool, dishes int, err error)
}

type WorkerOption func(*Worker)

func WithLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

func WithObserver(o Observer) WorkerOption {
	return func(w *Worker) { w.observer = o }
}

func WithLoader(l DatasetLoader) WorkerOption {
	return func(w *Worker) { w.loader = l }
}

// WithEngineOptions sets the options used when an init message replaces the
// dataset.
func WithEngineOptions(opts engine.Options) WorkerOption {
	return func(w *Worker) { w.engineOpts = opts }
}

// Worker handles one message at a time against its own engine. It never
// returns an error for a request: every failure, including a panic inside the
// pipeline, becomes an error response carrying the request's seq.
type Worker struct {
	engine     *engine.Engine
	engineOpts engine.Options
	loader     DatasetLoader
	observer   Observer
	logger     *zap.Logger
}

// NewWorker creates a worker. eng may be nil until an init message arrives.
func NewWorker(eng *engine.Engine, opts ...WorkerOption) *Worker {
	w := &Worker{engine: eng, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	if w.engineOpts.Logger == nil {
		w.engineOpts.Logger = w.logger
	}
	return w
}

// Engine returns the worker's current engine, or nil before init.
func (w *Worker) Engine() *engine.Engine { return w.engine }

type outcome struct {
	cacheHit bool
	dishes   int
	err      error
}

// Handle dispatches one message.
func (w *Worker) Handle(ctx context.Context, msg Message) (resp Response) {
	start := time.Now()
	var out outcome

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("recovered panic while handling message",
				zap.String("type", msg.Type),
				zap.Int64("seq", msg.Seq),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			out.err = fmt.Errorf("internal error: %v", r)
			resp = errorResponse(msg.Seq, out.err)
		}
		if w.observer != nil {
			w.observer.Observe(msg.Type, time.Since(start), out.cacheHit, out.dishes, out.err)
		}
	}()

	resp, out = w.dispatch(ctx, msg)
	if out.err != nil {
		w.logger.Warn("request failed",
			zap.String("type", msg.Type),
			zap.Int64("seq", msg.Seq),
			zap.Error(out.err),
		)
		return errorResponse(msg.Seq, out.err)
	}
	resp.Seq = msg.Seq
	return resp
}

func (w *Worker) dispatch(ctx context.Context, msg Message) (Response, outcome) {
	switch msg.Type {
	case TypeInit:
		return w.handleInit(ctx, msg.Payload)
	case TypeCompute:
		return w.handleCompute(msg.Payload)
	case TypeSolve:
		return w.handleSolve(msg.Payload)
	case TypeZones:
		if w.engine == nil {
			return Response{}, outcome{err: engine.ErrDatasetNotLoaded}
		}
		return Response{Type: TypeZones, Zones: w.engine.Zones()}, outcome{}
	}
	return Response{}, outcome{err: fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)}
}

func (w *Worker) handleInit(ctx context.Context, payload map[string]any) (Response, outcome) {
	req, err := ParseInit(payload)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	ds := req.Dataset
	if req.Location != "" {
		if w.loader == nil {
			return Response{}, outcome{err: errors.New("worker has no dataset loader")}
		}
		if ds, err = w.loader(ctx, req.Location); err != nil {
			return Response{}, outcome{err: fmt.Errorf("failed to load dataset from %s: %w", req.Location, err)}
		}
	}
	eng, err := engine.New(ds, w.engineOpts)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	w.engine = eng
	return Response{Type: TypeReady, DishCount: len(ds.Dishes)}, outcome{}
}

func (w *Worker) handleCompute(payload map[string]any) (Response, outcome) {
	if w.engine == nil {
		return Response{}, outcome{err: engine.ErrDatasetNotLoaded}
	}
	params, err := ParseCompute(payload)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	res, err := w.engine.Compute(params)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	return Response{
		Type:         TypeResult,
		RankedDishes: res.Dishes,
		RankingMeta:  &res.Meta,
	}, outcome{cacheHit: res.CacheHit, dishes: len(res.Dishes)}
}

func (w *Worker) handleSolve(payload map[string]any) (Response, outcome) {
	if w.engine == nil {
		return Response{}, outcome{err: engine.ErrDatasetNotLoaded}
	}
	req, err := ParseSolve(payload)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	sol, err := w.engine.Solve(req.Params, req.DishID, req.Metric, req.Target)
	if err != nil {
		return Response{}, outcome{err: err}
	}
	return Response{Type: TypeSolved, Solution: sol}, outcome{}
}

// HandleBytes decodes one frame, handles it and encodes the response.
// Undecodable frames still produce an error response with the best-effort
// seq of the frame.
func (w *Worker) HandleBytes(ctx context.Context, codec Codec, data []byte) ([]byte, error) {
	var (
		msg  Message
		resp Response
	)
	if err := codec.Decode(data, &msg); err != nil {
		resp = errorResponse(codec.PeekSeq(data), err)
	} else {
		resp = w.Handle(ctx, msg)
	}

	out, err := codec.Encode(resp)
	if err != nil {
		w.logger.Error("failed to encode response", zap.Int64("seq", resp.Seq), zap.Error(err))
		return codec.Encode(errorResponse(resp.Seq, fmt.Errorf("failed to encode response: %w", err)))
	}
	return out, nil
}

const maxLineSize = 64 << 20

// Serve runs the worker over a newline-delimited JSON stream until the input
// ends or ctx is cancelled.
func (w *Worker) Serve(ctx context.Context, r io.Reader, out io.Writer) error {
	codec := JSONCodec{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	bw := bufio.NewWriter(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		resp, err := w.HandleBytes(ctx, codec, line)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		if _, err := bw.Write(append(resp, '\n')); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}
