package ast

// Walker runs a pre-order traversal over type expressions. Callbacks may be
// nil. Type and Path may return false to skip the node's children.
type Walker struct {
	B        *Builder
	Type     func(TypeID) bool
	Lifetime func(LifetimeID)
	Path     func(PathID) bool
}

func (w *Walker) visitLifetime(id LifetimeID) {
	if w.Lifetime != nil && id.IsValid() {
		w.Lifetime(id)
	}
}

func (w *Walker) WalkType(id TypeID) {
	if !id.IsValid() {
		return
	}
	if w.Type != nil && !w.Type(id) {
		return
	}
	te := w.B.Types.Get(id)
	if te == nil {
		return
	}
	switch te.Kind {
	case TypeExprPath:
		p, _ := w.B.Types.Path(id)
		w.WalkPath(p.Path)
	case TypeExprRef:
		r, _ := w.B.Types.Ref(id)
		w.visitLifetime(r.Lifetime)
		w.WalkType(r.Elem)
	case TypeExprRawPtr:
		r, _ := w.B.Types.RawPtr(id)
		w.WalkType(r.Elem)
	case TypeExprSlice:
		s, _ := w.B.Types.Slice(id)
		w.WalkType(s.Elem)
	case TypeExprArray:
		a, _ := w.B.Types.Array(id)
		w.WalkType(a.Elem)
	case TypeExprTuple:
		tp, _ := w.B.Types.Tuple(id)
		for _, e := range tp.Elems {
			w.WalkType(e)
		}
	case TypeExprFnPtr:
		fp, _ := w.B.Types.FnPtr(id)
		for _, in := range fp.Inputs {
			w.WalkType(in)
		}
		w.WalkType(fp.Output)
	case TypeExprTraitObject:
		obj, _ := w.B.Types.TraitObject(id)
		for i := range obj.Bounds {
			w.WalkPolyTraitRef(&obj.Bounds[i])
		}
		w.visitLifetime(obj.Lifetime)
	case TypeExprImplTrait:
		it, _ := w.B.Types.ImplTrait(id)
		if op, ok := w.B.Items.Opaque(it.Opaque); ok {
			for i := range op.Bounds {
				w.WalkBound(&op.Bounds[i])
			}
		}
	}
}

func (w *Walker) WalkPath(id PathID) {
	if !id.IsValid() {
		return
	}
	if w.Path != nil && !w.Path(id) {
		return
	}
	p := w.B.Paths.Get(id)
	if p == nil {
		return
	}
	w.WalkType(p.SelfTy)
	for i := range p.Segments {
		w.walkSegmentArgs(p.Segments[i].Args)
	}
}

func (w *Walker) walkSegmentArgs(args *GenericArgs) {
	if args == nil {
		return
	}
	for _, a := range args.Args {
		switch a.Kind {
		case ArgLifetime:
			w.visitLifetime(a.Lifetime)
		case ArgType:
			w.WalkType(a.Type)
		}
	}
	for i := range args.Bindings {
		b := &args.Bindings[i]
		w.WalkType(b.Type)
		for j := range b.Bounds {
			w.WalkBound(&b.Bounds[j])
		}
	}
}

func (w *Walker) WalkBound(b *Bound) {
	switch b.Kind {
	case BoundTrait:
		w.WalkPolyTraitRef(b.Trait)
	case BoundOutlives:
		w.visitLifetime(b.Outlives)
	}
}

func (w *Walker) WalkPolyTraitRef(ptr *PolyTraitRef) {
	if ptr == nil {
		return
	}
	w.WalkPath(ptr.Trait)
}

// WalkSig walks every type in a signature, inputs before output.
func (w *Walker) WalkSig(sig *FnSig) {
	for _, in := range sig.Inputs {
		w.WalkType(in.Ty)
	}
	w.WalkType(sig.Output)
}
