package trace

// nopTracer swallows every event. Begin hands it out when tracing is off so
// call sites never need a nil check.
type nopTracer struct{}

func (nopTracer) Emit(Event) {}

func (nopTracer) Flush() error { return nil }

func (nopTracer) Close() error { return nil }

func (nopTracer) Level() Level { return LevelOff }

func (nopTracer) Enabled() bool { return false }

// Nop is the shared disabled tracer.
var Nop Tracer = nopTracer{}
