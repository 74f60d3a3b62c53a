package stream

// Emitter turns a completion stream into the audit event sequence:
// one start event with the total unit count, then per completion a progress
// event (cumulative processed count) optionally followed by a data event,
// and finally exactly one done event. A run that fails before any unit
// starts emits a single error event instead.
//
// Field names vary per audit kind (total_repos vs total_members, repo_data vs
// member_data, ...) to stay wire-compatible with existing consumers, so the
// emitter is parameterized over its JSON keys.
type Emitter struct {
	w          *Writer
	subjectKey string
	totalKey   string
	dataKey    string
	processed  int
}

// NewEmitter builds an emitter for one audit kind.
// subjectKey names the per-unit identifier field in progress events,
// totalKey the count field in the start event, dataKey the payload field in
// data events.
func NewEmitter(w *Writer, subjectKey, totalKey, dataKey string) *Emitter {
	return &Emitter{w: w, subjectKey: subjectKey, totalKey: totalKey, dataKey: dataKey}
}

func (e *Emitter) Start(total int) error {
	return e.w.Send(map[string]any{"type": "start", e.totalKey: total})
}

// Progress reports one more completed unit. The processed count is maintained
// here, on the single goroutine draining the scheduler, so it increases
// monotonically and reaches the total exactly once.
func (e *Emitter) Progress(subject string) error {
	e.processed++
	return e.w.Send(map[string]any{
		"type":       "progress",
		e.subjectKey: subject,
		"processed":  e.processed,
	})
}

func (e *Emitter) Data(payload any) error {
	return e.w.Send(map[string]any{"type": "data", e.dataKey: payload})
}

func (e *Emitter) Error(detail string) error {
	return e.w.Send(map[string]any{"type": "error", "detail": detail})
}

func (e *Emitter) Done() error {
	return e.w.Send(map[string]any{"type": "done"})
}
