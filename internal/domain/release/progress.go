package release

// ProgressFuncs adapts plain functions to the Progress interface.
// Nil functions are skipped.
type ProgressFuncs struct {
	// OnChunk handles per-chunk notifications.
	OnChunk func(received, total int64, known bool)
	// OnFinished handles the completion notification.
	OnFinished func()
}

// Chunk implements Progress.
func (p ProgressFuncs) Chunk(received, total int64, known bool) {
	if p.OnChunk != nil {
		p.OnChunk(received, total, known)
	}
}

// Finished implements Progress.
func (p ProgressFuncs) Finished() {
	if p.OnFinished != nil {
		p.OnFinished()
	}
}

// Discard ignores all notifications.
//
//nolint:gochecknoglobals // Stateless sink shared by callers that do not report progress.
var Discard Progress = ProgressFuncs{}

// Tee fans notifications out to every non-nil sink in order.
func Tee(sinks ...Progress) Progress {
	filtered := make([]Progress, 0, len(sinks))

	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}

	return tee(filtered)
}

type tee []Progress

func (t tee) Chunk(received, total int64, known bool) {
	for _, s := range t {
		s.Chunk(received, total, known)
	}
}

func (t tee) Finished() {
	for _, s := range t {
		s.Finished()
	}
}
