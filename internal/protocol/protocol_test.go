package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/dishrank/internal/engine"
	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/fxamacker/cbor/v2"
)

const datasetJSON = `{
  "zones": [{"id": "EU", "name": "Europe", "currency": "EUR"}],
  "coefficients": {"raw": 1, "fried": 0.5},
  "ingredients": [
    {"name": "Rice", "health": 6, "ethics": 8, "prices": {"EU": 10}},
    {"name": "Beef", "health": 5, "ethics": 2, "ethics_reason": "emissions", "prices": {"EU": 20}}
  ],
  "dishes": [
    {"id": "a", "name": "Rice bowl", "ingredients": [{"name": "rice", "grams": 200}],
     "prep_minutes": 5, "cook_minutes": 15, "taste": 6, "calories": 300, "serving_grams": 250},
    {"id": "b", "name": "Beef plate", "ingredients": [{"name": "beef", "grams": 400, "state": "fried"}],
     "prep_minutes": 10, "cook_minutes": 50, "passive_hours": 3, "taste": 8, "calories": 700, "serving_grams": 400}
  ]
}`

func datasetPayload(t *testing.T) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(datasetJSON), &payload); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return payload
}

func readyWorker(t *testing.T, opts ...WorkerOption) *Worker {
	t.Helper()
	w := NewWorker(nil, opts...)
	resp := w.Handle(context.Background(), Message{Type: TypeInit, Seq: 1, Payload: datasetPayload(t)})
	if resp.Type != TypeReady {
		t.Fatalf("init failed: %+v", resp)
	}
	return w
}

func computePayload() map[string]any {
	return map[string]any{
		"selectedZone": "EU",
		"isOptimized":  false,
		"priceUnit":    "serving",
		"priorities":   map[string]any{"taste": 10.0, "cheapness": 0.0},
	}
}

func TestParseCompute(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		wantErr bool
		check   func(t *testing.T, p engine.Params)
	}{
		{name: "nil payload", payload: nil, wantErr: true},
		{name: "missing zone", payload: map[string]any{"priceUnit": "serving"}, wantErr: true},
		{name: "zone not a string", payload: map[string]any{"selectedZone": 3.0}, wantErr: true},
		{name: "bad unit", payload: map[string]any{"selectedZone": "EU", "priceUnit": "per-gallon"}, wantErr: true},
		{name: "bad optimized flag", payload: map[string]any{"selectedZone": "EU", "isOptimized": "yes"}, wantErr: true},
		{name: "overrides not an object", payload: map[string]any{"selectedZone": "EU", "overrides": []any{}}, wantErr: true},
		{
			name: "coerces loosely typed fields",
			payload: map[string]any{
				"selectedZone": "EU",
				"overrides": map[string]any{
					"a":     map[string]any{"cost": "2.5", "tasteMul": uint64(2), "note": "spicy", "health": nil},
					"b":     "garbage",
					"empty": map[string]any{"note": true},
				},
				"priorities":       map[string]any{"taste": int64(40), "speed": "-3", "bogus": 9.0, "ethics": "abc"},
				"tasteScoreMethod": "critics",
				"unexpected":       42.0,
			},
			check: func(t *testing.T, p engine.Params) {
				if len(p.Overrides) != 1 || p.Overrides["a"]["cost"] != 2.5 || p.Overrides["a"]["tasteMul"] != 2 {
					t.Errorf("overrides = %v", p.Overrides)
				}
				if _, ok := p.Overrides["a"]["note"]; ok {
					t.Error("non-numeric override kept")
				}
				want := models.Priorities{Taste: 10, Speed: -3}
				if p.Priorities != want {
					t.Errorf("priorities = %+v, want %+v", p.Priorities, want)
				}
				if p.TasteMethod != "critics" || p.PriceUnit != "" {
					t.Errorf("unexpected params %+v", p)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseCompute(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRequest) {
					t.Errorf("expected ErrMalformedRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCompute: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestParseSolve(t *testing.T) {
	payload := computePayload()
	payload["dishId"] = "a"
	payload["metric"] = "cheapness"

	if _, err := ParseSolve(payload); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("missing target should be malformed, got %v", err)
	}
	payload["target"] = 7.5
	req, err := ParseSolve(payload)
	if err != nil {
		t.Fatalf("ParseSolve: %v", err)
	}
	if req.DishID != "a" || req.Metric != "cheapness" || req.Target != 7.5 || req.Params.Zone != "EU" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestParseInit(t *testing.T) {
	req, err := ParseInit(datasetPayload(t))
	if err != nil {
		t.Fatalf("ParseInit: %v", err)
	}
	ds := req.Dataset
	if len(ds.Dishes) != 2 || len(ds.Ingredients) != 2 || len(ds.Zones) != 1 {
		t.Fatalf("unexpected dataset sizes %d/%d/%d", len(ds.Dishes), len(ds.Ingredients), len(ds.Zones))
	}
	if ds.Dishes[1].Ingredients[0].State != "fried" || ds.Dishes[1].PassiveHours != 3 {
		t.Errorf("dish fields not decoded: %+v", ds.Dishes[1])
	}
	if ds.Ingredients[1].Health == nil || *ds.Ingredients[1].Health != 5 || ds.Ingredients[1].EthicsReason != "emissions" {
		t.Errorf("ingredient fields not decoded: %+v", ds.Ingredients[1])
	}
	if ds.Coefficients["fried"] != 0.5 {
		t.Errorf("coefficients = %v", ds.Coefficients)
	}

	req, err = ParseInit(map[string]any{"location": "data/"})
	if err != nil || req.Location != "data/" || req.Dataset != nil {
		t.Errorf("location init = %+v, %v", req, err)
	}
	if _, err := ParseInit(map[string]any{}); !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestWorkerEchoesSeq(t *testing.T) {
	w := readyWorker(t)
	ctx := context.Background()

	// Results may be delivered in any order; the host only keeps the one
	// whose seq matches the latest request.
	first := w.Handle(ctx, Message{Type: TypeCompute, Seq: 41, Payload: computePayload()})
	second := w.Handle(ctx, Message{Type: TypeCompute, Seq: 42, Payload: computePayload()})

	if first.Seq != 41 || second.Seq != 42 {
		t.Fatalf("seq not echoed: %d, %d", first.Seq, second.Seq)
	}
	if second.Type != TypeResult || len(second.RankedDishes) != 2 || second.RankingMeta == nil {
		t.Fatalf("unexpected result %+v", second)
	}
	if second.RankedDishes[0].ID != "b" {
		t.Errorf("expected tastier dish first, got %s", second.RankedDishes[0].ID)
	}
}

func TestWorkerErrors(t *testing.T) {
	ctx := context.Background()
	uninit := NewWorker(nil)
	ready := readyWorker(t)

	tests := []struct {
		name string
		w    *Worker
		msg  Message
		want string
	}{
		{"compute before init", uninit, Message{Type: TypeCompute, Seq: 3, Payload: computePayload()}, "dataset not loaded"},
		{"zones before init", uninit, Message{Type: TypeZones, Seq: 4}, "dataset not loaded"},
		{"unknown type", ready, Message{Type: "explode", Seq: 5}, "unknown message type"},
		{"unknown zone", ready, Message{Type: TypeCompute, Seq: 6, Payload: map[string]any{"selectedZone": "XX"}}, "unknown economic zone"},
		{"location without loader", uninit, Message{Type: TypeInit, Seq: 7, Payload: map[string]any{"location": "x"}}, "no dataset loader"},
		{"corrupt dataset", uninit, Message{Type: TypeInit, Seq: 8, Payload: map[string]any{"dishes": []any{}}}, "dataset not loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.w.Handle(ctx, tt.msg)
			if resp.Type != TypeError || resp.Seq != tt.msg.Seq {
				t.Fatalf("expected error with seq %d, got %+v", tt.msg.Seq, resp)
			}
			if !strings.Contains(resp.Message, tt.want) {
				t.Errorf("message %q does not contain %q", resp.Message, tt.want)
			}
		})
	}

	// The worker keeps serving after errors.
	if resp := ready.Handle(ctx, Message{Type: TypeZones, Seq: 9}); resp.Type != TypeZones || len(resp.Zones) != 1 {
		t.Errorf("unexpected zones response %+v", resp)
	}
}

func TestWorkerRecoversPanics(t *testing.T) {
	loader := func(ctx context.Context, location string) (*models.Dataset, error) {
		panic("disk on fire")
	}
	w := readyWorker(t, WithLoader(loader))
	ctx := context.Background()

	resp := w.Handle(ctx, Message{Type: TypeInit, Seq: 13, Payload: map[string]any{"location": "somewhere"}})
	if resp.Type != TypeError || resp.Seq != 13 || !strings.Contains(resp.Message, "disk on fire") {
		t.Fatalf("expected recovered error, got %+v", resp)
	}
	if resp := w.Handle(ctx, Message{Type: TypeCompute, Seq: 14, Payload: computePayload()}); resp.Type != TypeResult {
		t.Errorf("worker must keep working after a panic, got %+v", resp)
	}
}

func TestWorkerSolve(t *testing.T) {
	w := readyWorker(t)
	payload := computePayload()
	payload["dishId"] = "b"
	payload["metric"] = "cheapness"
	payload["target"] = 10.0

	resp := w.Handle(context.Background(), Message{Type: TypeSolve, Seq: 2, Payload: payload})
	if resp.Type != TypeSolved || resp.Solution == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Solution.Multiplier == nil || *resp.Solution.Multiplier >= 1 {
		t.Errorf("expected a cost reduction, got %+v", resp.Solution)
	}
}

type recordingObserver struct {
	types  []string
	hits   []bool
	errors int
}

func (r *recordingObserver) Observe(msgType string, _ time.Duration, cacheHit bool, _ int, err error) {
	r.types = append(r.types, msgType)
	r.hits = append(r.hits, cacheHit)
	if err != nil {
		r.errors++
	}
}

func TestWorkerObserver(t *testing.T) {
	obs := &recordingObserver{}
	w := readyWorker(t, WithObserver(obs))
	ctx := context.Background()

	w.Handle(ctx, Message{Type: TypeCompute, Seq: 2, Payload: computePayload()})
	w.Handle(ctx, Message{Type: TypeCompute, Seq: 3, Payload: computePayload()})
	w.Handle(ctx, Message{Type: "nope", Seq: 4})

	if len(obs.types) != 4 || obs.types[0] != TypeInit {
		t.Fatalf("observed %v", obs.types)
	}
	if obs.hits[1] || !obs.hits[2] {
		t.Errorf("cache hits = %v", obs.hits)
	}
	if obs.errors != 1 {
		t.Errorf("errors = %d, want 1", obs.errors)
	}
}

func TestHandleBytesJSON(t *testing.T) {
	w := readyWorker(t)
	ctx := context.Background()

	out, err := w.HandleBytes(ctx, JSONCodec{}, []byte(`{"type":"compute","seq":7,"payload":{"selectedZone":"EU"}}`))
	if err != nil {
		t.Fatalf("HandleBytes: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != TypeResult || resp.Seq != 7 {
		t.Errorf("unexpected response %s", out)
	}

	out, err = w.HandleBytes(ctx, JSONCodec{}, []byte(`{"type":"compute","seq":8,"payload":`))
	if err != nil {
		t.Fatalf("HandleBytes: %v", err)
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != TypeError || resp.Seq != 8 {
		t.Errorf("malformed frame should still echo seq, got %s", out)
	}
}

func TestHandleBytesCBOR(t *testing.T) {
	codec, err := NewCBORCodec()
	if err != nil {
		t.Fatalf("NewCBORCodec: %v", err)
	}
	w := readyWorker(t)

	frame, err := cbor.Marshal(map[string]any{
		"type": "compute",
		"seq":  uint64(21),
		"payload": map[string]any{
			"selectedZone": "EU",
			"priceUnit":    "per1kg",
			"overrides":    map[string]any{"a": map[string]any{"costMul": 3}},
			"priorities":   map[string]any{"cheapness": -4},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := w.HandleBytes(context.Background(), codec, frame)
	if err != nil {
		t.Fatalf("HandleBytes: %v", err)
	}
	var resp Response
	if err := cbor.Unmarshal(out, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != TypeResult || resp.Seq != 21 || len(resp.RankedDishes) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.RankingMeta.PriceUnit != models.PricePerKg {
		t.Errorf("price unit = %s", resp.RankingMeta.PriceUnit)
	}
	a := resp.RankedDishes[0]
	if a.ID != "a" || !a.HasOverride {
		t.Errorf("expected overridden dish a first under negative cheapness, got %+v", a)
	}
}

func TestServe(t *testing.T) {
	w := NewWorker(nil)
	initLine, _ := json.Marshal(Message{Type: TypeInit, Seq: 1, Payload: datasetPayload(t)})

	var in bytes.Buffer
	in.Write(initLine)
	in.WriteString("\n\n")
	in.WriteString(`{"type":"zones","seq":2}` + "\n")
	in.WriteString("not json\n")

	var out bytes.Buffer
	if err := w.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 responses, got %d: %s", len(lines), out.String())
	}
	wantTypes := []string{TypeReady, TypeZones, TypeError}
	for i, line := range lines {
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if resp.Type != wantTypes[i] {
			t.Errorf("line %d type = %s, want %s", i, resp.Type, wantTypes[i])
		}
	}
}
