package driver

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/lower"
	"lumen/internal/oracle"
	"lumen/internal/regions"
	"lumen/internal/source"
	"lumen/internal/trace"
	"lumen/internal/types"
)

// Module собирает всё, что нужно для элаборации одного модуля: арены
// поверхностного синтаксиса, таблицу определений и список элементов.
type Module struct {
	FS    *source.FileSet
	Strs  *source.Interner
	B     *ast.Builder
	Table *oracle.Table
	// Items перечисляет определения для элаборации в порядке объявления.
	Items []defs.DefID
}

// Options настраивает прогон элаборации.
type Options struct {
	// Jobs ограничивает число параллельных горутин; 0 означает GOMAXPROCS.
	Jobs int
	// MaxDiagnostics задаёт вместимость bag каждого элемента.
	MaxDiagnostics int
	// Tracer принимает события прогона; nil отключает трассировку.
	Tracer trace.Tracer
	// Cache переиспользует итоги прошлых прогонов; nil отключает кеш.
	Cache *DiskCache
}

// ItemResult содержит итог элаборации одного элемента
type ItemResult struct {
	Def       defs.DefID
	Name      string
	Signature string    // отрендеренная сигнатура, пустая для не-функций
	Tainted   bool      // элемент дал хотя бы один error-сентинел
	Cached    bool      // итог взят из дискового кеша
	Bag       *diag.Bag // диагностики элемента
}

// ModuleResult агрегирует результаты по всем элементам модуля.
type ModuleResult struct {
	Items []ItemResult
	// Bag собирает диагностики всех элементов в порядке объявления.
	Bag     *diag.Bag
	Timings Report
}

// ElaborateModule элаборирует все элементы модуля: разрешает регионы и
// опускает сигнатуры, независимые элементы параллельно. Паника с типом
// *lower.InvariantError ловится на границе элемента и превращается в
// диагностику ElabInternal; прочие паники пробрасываются дальше.
func ElaborateModule(ctx context.Context, m Module, opts Options) (*ModuleResult, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 256
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	timer := NewTimer()
	root := trace.Begin(tracer, trace.ScopeDriver, "elaborate-module", 0)
	defer root.End(fmt.Sprintf("items=%d", len(m.Items)))

	// Вместимость Bag хранится в uint16, не переполняем её.
	total := min(maxDiags*max(len(m.Items), 1), 1<<16-1)
	out := &ModuleResult{
		Items: make([]ItemResult, len(m.Items)),
		Bag:   diag.NewBag(total),
	}
	if len(m.Items) == 0 {
		out.Timings = timer.Report()
		return out, nil
	}

	// Хеш модуля считается заранее: ключ кеша элемента должен меняться
	// при любой правке модуля, не только самого элемента.
	var moduleKey Digest
	if opts.Cache != nil {
		phase := timer.Begin("hash")
		moduleKey = moduleDigest(m)
		timer.End(phase, "")
	}

	// Диагностики разрешения регионов идут через общий резолвер из
	// нескольких горутин, поэтому его репортер берёт мьютекс.
	regionBag := diag.NewBag(maxDiags)
	regionRep := &lockedReporter{r: diag.BagReporter{Bag: regionBag}}
	resolver := regions.NewResolver(m.B, oracle.New(m.Table, m.B), m.Strs, regionRep)
	interner := types.NewInterner()

	e := &elaborator{
		m:         m,
		opts:      opts,
		tracer:    tracer,
		root:      root.ID(),
		resolver:  resolver,
		interner:  interner,
		maxDiags:  maxDiags,
		moduleKey: moduleKey,
	}

	phase := timer.Begin("elaborate")
	span := trace.Begin(tracer, trace.ScopePhase, "elaborate", root.ID())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(m.Items)))
	for i, def := range m.Items {
		i, def := i, def
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Индекс i уникален для горутины, мьютекс не нужен.
			out.Items[i] = e.item(def)
			return nil
		})
	}
	err := g.Wait()
	span.End(fmt.Sprintf("items=%d", len(m.Items)))
	timer.End(phase, fmt.Sprintf("%d items", len(m.Items)))

	out.Bag.Merge(regionBag)
	for i := range out.Items {
		out.Bag.Merge(out.Items[i].Bag)
	}
	out.Timings = timer.Report()
	if err != nil {
		return out, err
	}
	return out, nil
}

type elaborator struct {
	m         Module
	opts      Options
	tracer    trace.Tracer
	root      uint64
	resolver  *regions.Resolver
	interner  *types.Interner
	maxDiags  int
	moduleKey Digest
}

func (e *elaborator) item(def defs.DefID) (res ItemResult) {
	bag := diag.NewBag(e.maxDiags)
	res = ItemResult{Def: def, Name: e.defName(def), Bag: bag}

	span := trace.Begin(e.tracer, trace.ScopeItem, res.Name, e.root)
	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*lower.InvariantError)
			if !ok {
				panic(r)
			}
			bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.ElabInternal,
				Message:  inv.Msg,
				Primary:  e.m.Table.Span(def),
			})
			res.Tainted = true
			span.End("invariant violated")
		}
	}()

	if e.m.Table.Kind(def) != defs.DefFn {
		// Структуры, трейты и прочие объявления пока не несут
		// собственной работы: их регионы разрешаются по требованию
		// из использующих функций.
		span.End("skipped")
		return res
	}

	var key Digest
	if e.opts.Cache != nil {
		key = e.itemKey(def)
		if cached, ok := e.lookupCache(key); ok {
			res.Signature = cached.Signature
			res.Cached = true
			span.End("cache hit")
			return res
		}
	}

	// Свой Lowerer на элемент: диагностики идут в bag элемента, а
	// дорогие кеши (interner, резолвер, таблица) остаются общими.
	l := lower.NewLowerer(e.m.B, oracle.New(e.m.Table, e.m.B), e.interner, e.resolver, e.m.Strs, diag.BagReporter{Bag: bag})
	sig, c := l.LowerFnItem(def)
	res.Tainted = c.Tainted()
	res.Signature = e.renderSig(def, sig)

	if !res.Tainted && bag.Len() == 0 {
		e.storeCache(key, res)
	}
	span.End(res.Signature)
	return res
}

func (e *elaborator) lookupCache(key Digest) (ItemPayload, bool) {
	if e.opts.Cache == nil {
		return ItemPayload{}, false
	}
	var p ItemPayload
	ok, err := e.opts.Cache.Get(key, &p)
	if err != nil || !ok || p.Schema != itemCacheSchemaVersion {
		return ItemPayload{}, false
	}
	return p, true
}

func (e *elaborator) storeCache(key Digest, res ItemResult) {
	if e.opts.Cache == nil {
		return
	}
	// Ошибка записи не мешает элаборации.
	_ = e.opts.Cache.Put(key, &ItemPayload{
		Schema:    itemCacheSchemaVersion,
		Name:      res.Name,
		Signature: res.Signature,
	})
}

func (e *elaborator) defName(def defs.DefID) string {
	if s, ok := e.m.Strs.Lookup(e.m.Table.Name(def)); ok {
		return s
	}
	return "_"
}

// renderSig печатает опущенную сигнатуру в виде `fn name(T, U) -> V`.
func (e *elaborator) renderSig(def defs.DefID, sig lower.Sig) string {
	p := &types.Printer{In: e.interner, Strs: e.m.Strs, DefName: e.defName}
	var sb strings.Builder
	sb.WriteString("fn ")
	sb.WriteString(e.defName(def))
	sb.WriteString("(")
	for i, in := range sig.Inputs(e.interner) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Ty(in))
	}
	sb.WriteString(")")
	if out := sig.Output(e.interner); out.IsValid() {
		sb.WriteString(" -> ")
		sb.WriteString(p.Ty(out))
	}
	return sb.String()
}

// lockedReporter сериализует доступ к не потокобезопасному репортеру.
type lockedReporter struct {
	mu sync.Mutex
	r  diag.Reporter
}

func (l *lockedReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Report(code, sev, primary, msg, notes, fixes)
}

// SortResults упорядочивает результаты по имени. Порядок объявления
// сохраняется в ModuleResult.Items; это для отчётов, где удобнее алфавит.
func SortResults(items []ItemResult) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}
