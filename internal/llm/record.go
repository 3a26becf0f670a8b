package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/phasegate/internal/logging"
	"github.com/abhisek/phasegate/internal/store"
)

// RequestRecorder persists one row per LLM call.
type RequestRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

type recording struct {
	Provider
	rec    RequestRecorder
	logger *slog.Logger
	now    func() time.Time
}

// WithRecording stores every attempt, failed or not, through rec. A failed
// write is logged and never fails the call.
func WithRecording(p Provider, rec RequestRecorder, logger *slog.Logger) Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &recording{Provider: p, rec: rec, logger: logger, now: time.Now}
}

func (r *recording) Generate(ctx context.Context, req Request) (*Response, error) {
	start := r.now()
	resp, err := r.Provider.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    r.Name(),
		Model:       r.Model(),
		Purpose:     req.Purpose,
		LatencyMs:   r.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if data.Purpose == "" {
		data.Purpose = "unknown"
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorKind = Code(err)
		data.ErrorMessage = err.Error()
	}

	if werr := r.rec.AppendLLMRequest(context.WithoutCancel(ctx), data); werr != nil {
		r.logger.Warn("recording LLM request failed", "purpose", data.Purpose, "error", werr)
	}
	return resp, err
}

func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n" + req.System + "\n\n")
	}
	b.WriteString("[user]\n" + req.Prompt + "\n")
	if req.Schema != nil {
		b.WriteString("\n[schema " + req.Schema.Name + "]\n")
		b.Write(req.Schema.JSON())
		b.WriteString("\n")
	}
	return b.String()
}
