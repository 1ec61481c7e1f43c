package types

import (
	"encoding/binary"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TyIDs for primitives seeded at interner construction.
type Builtins struct {
	Error TyID
	Bool  TyID
	Char  TyID
	Str   TyID
	Never TyID
	Unit  TyID
	Infer TyID
	Int   TyID
	Uint  TyID
	Float TyID
}

// Interner provides stable IDs for types, argument lists, predicate lists,
// bound-variable lists and consts by hashing structural descriptors.
// Safe for concurrent use; an interned ID is never reused or mutated.
type Interner struct {
	mu sync.RWMutex

	tys     []Ty
	tyIndex map[Ty]TyID

	argLists []([]GenericArg)
	argIndex map[string]ArgsID

	tyLists []([]TyID)
	tysIdx  map[string]TysID

	predLists []([]ExistentialPredicate)
	predIndex map[string]PredsID

	varLists []([]BoundVarKind)
	varIndex map[string]BoundVarsID

	consts     []Const
	constIndex map[Const]ConstID

	builtins Builtins
}

func NewInterner() *Interner {
	in := &Interner{
		tyIndex:    make(map[Ty]TyID, 64),
		argIndex:   make(map[string]ArgsID, 32),
		tysIdx:     make(map[string]TysID, 32),
		predIndex:  make(map[string]PredsID, 8),
		varIndex:   make(map[string]BoundVarsID, 8),
		constIndex: make(map[Const]ConstID, 8),
	}
	// слот 0 везде зарезервирован
	in.tys = append(in.tys, Ty{})
	in.argLists = append(in.argLists, nil)
	in.tyLists = append(in.tyLists, nil)
	in.predLists = append(in.predLists, nil)
	in.varLists = append(in.varLists, nil)
	in.consts = append(in.consts, Const{})

	in.builtins.Error = in.InternTy(Ty{Kind: KindError})
	in.builtins.Bool = in.InternTy(Ty{Kind: KindBool})
	in.builtins.Char = in.InternTy(Ty{Kind: KindChar})
	in.builtins.Str = in.InternTy(Ty{Kind: KindStr})
	in.builtins.Never = in.InternTy(Ty{Kind: KindNever})
	in.builtins.Infer = in.InternTy(Ty{Kind: KindInfer})
	in.builtins.Unit = in.InternTy(MakeTuple(in.InternTys(nil)))
	in.builtins.Int = in.InternTy(MakeInt(WidthAny))
	in.builtins.Uint = in.InternTy(MakeUint(WidthAny))
	in.builtins.Float = in.InternTy(MakeFloat(WidthAny))
	return in
}

func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// InternTy ensures the descriptor has a stable TyID.
func (in *Interner) InternTy(t Ty) TyID {
	in.mu.RLock()
	id, ok := in.tyIndex[t]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.tyIndex[t]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.tys))
	if err != nil {
		panic(fmt.Errorf("len(tys) overflow: %w", err))
	}
	id = TyID(n)
	in.tys = append(in.tys, t)
	in.tyIndex[t] = id
	return id
}

// LookupTy returns the descriptor for a TyID.
func (in *Interner) LookupTy(id TyID) (Ty, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTyID || int(id) >= len(in.tys) {
		return Ty{}, false
	}
	return in.tys[id], true
}

// MustLookupTy panics when id is invalid.
func (in *Interner) MustLookupTy(id TyID) Ty {
	t, ok := in.LookupTy(id)
	if !ok {
		panic("types: invalid TyID")
	}
	return t
}

// InternArgs interns a generic-argument list. The slice is copied.
func (in *Interner) InternArgs(args []GenericArg) ArgsID {
	key := argsKey(args)
	in.mu.RLock()
	id, ok := in.argIndex[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.argIndex[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.argLists))
	if err != nil {
		panic(fmt.Errorf("len(argLists) overflow: %w", err))
	}
	id = ArgsID(n)
	in.argLists = append(in.argLists, append([]GenericArg(nil), args...))
	in.argIndex[key] = id
	return id
}

// LookupArgs returns the interned list. Callers must not modify it.
func (in *Interner) LookupArgs(id ArgsID) []GenericArg {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.argLists) {
		return nil
	}
	return in.argLists[id]
}

func (in *Interner) InternTys(tys []TyID) TysID {
	key := tysKey(tys)
	in.mu.RLock()
	id, ok := in.tysIdx[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.tysIdx[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.tyLists))
	if err != nil {
		panic(fmt.Errorf("len(tyLists) overflow: %w", err))
	}
	id = TysID(n)
	in.tyLists = append(in.tyLists, append([]TyID(nil), tys...))
	in.tysIdx[key] = id
	return id
}

func (in *Interner) LookupTys(id TysID) []TyID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.tyLists) {
		return nil
	}
	return in.tyLists[id]
}

// InternPreds interns an existential-predicate list. The caller must pass the
// canonical order (see CanonicalizePredicates).
func (in *Interner) InternPreds(preds []ExistentialPredicate) PredsID {
	key := predsKey(preds)
	in.mu.RLock()
	id, ok := in.predIndex[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.predIndex[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.predLists))
	if err != nil {
		panic(fmt.Errorf("len(predLists) overflow: %w", err))
	}
	id = PredsID(n)
	in.predLists = append(in.predLists, append([]ExistentialPredicate(nil), preds...))
	in.predIndex[key] = id
	return id
}

func (in *Interner) LookupPreds(id PredsID) []ExistentialPredicate {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.predLists) {
		return nil
	}
	return in.predLists[id]
}

func (in *Interner) InternBoundVars(vars []BoundVarKind) BoundVarsID {
	key := varsKey(vars)
	in.mu.RLock()
	id, ok := in.varIndex[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.varIndex[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.varLists))
	if err != nil {
		panic(fmt.Errorf("len(varLists) overflow: %w", err))
	}
	id = BoundVarsID(n)
	in.varLists = append(in.varLists, append([]BoundVarKind(nil), vars...))
	in.varIndex[key] = id
	return id
}

func (in *Interner) LookupBoundVars(id BoundVarsID) []BoundVarKind {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.varLists) {
		return nil
	}
	return in.varLists[id]
}

func (in *Interner) InternConst(c Const) ConstID {
	in.mu.RLock()
	id, ok := in.constIndex[c]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.constIndex[c]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.consts))
	if err != nil {
		panic(fmt.Errorf("len(consts) overflow: %w", err))
	}
	id = ConstID(n)
	in.consts = append(in.consts, c)
	in.constIndex[c] = id
	return id
}

func (in *Interner) LookupConst(id ConstID) (Const, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoConstID || int(id) >= len(in.consts) {
		return Const{}, false
	}
	return in.consts[id], true
}

// Len returns the number of interned types, the reserved slot excluded.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.tys) - 1
}

// key encoding -------------------------------------------------------------

func appendRegion(buf []byte, r Region) []byte {
	buf = append(buf, byte(r.Kind))
	buf = binary.AppendUvarint(buf, uint64(r.Depth))
	buf = binary.AppendUvarint(buf, uint64(r.Index))
	buf = binary.AppendUvarint(buf, uint64(r.Def))
	buf = binary.AppendUvarint(buf, uint64(r.Scope))
	return buf
}

func argsKey(args []GenericArg) string {
	buf := make([]byte, 0, len(args)*8)
	for _, a := range args {
		buf = append(buf, byte(a.Kind))
		switch a.Kind {
		case ArgRegion:
			buf = appendRegion(buf, a.Region)
		case ArgTy:
			buf = binary.AppendUvarint(buf, uint64(a.Ty))
		case ArgConst:
			buf = binary.AppendUvarint(buf, uint64(a.Const))
		}
	}
	return string(buf)
}

func tysKey(tys []TyID) string {
	buf := make([]byte, 0, len(tys)*4)
	for _, t := range tys {
		buf = binary.AppendUvarint(buf, uint64(t))
	}
	return string(buf)
}

func predsKey(preds []ExistentialPredicate) string {
	buf := make([]byte, 0, len(preds)*16)
	for _, p := range preds {
		buf = append(buf, byte(p.Kind))
		buf = binary.AppendUvarint(buf, uint64(p.Def))
		buf = binary.AppendUvarint(buf, uint64(p.Trait))
		buf = binary.AppendUvarint(buf, uint64(p.Name))
		buf = binary.AppendUvarint(buf, uint64(p.Args))
		buf = binary.AppendUvarint(buf, uint64(p.Term))
	}
	return string(buf)
}

func varsKey(vars []BoundVarKind) string {
	buf := make([]byte, 0, len(vars)*6)
	for _, v := range vars {
		buf = append(buf, byte(v.Kind))
		if v.Anon {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.AppendUvarint(buf, uint64(v.Def))
		buf = binary.AppendUvarint(buf, uint64(v.Name))
	}
	return string(buf)
}
