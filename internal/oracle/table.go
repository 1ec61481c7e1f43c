package oracle

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
)

// AssocItemInfo is the table's view of one trait or impl member.
type AssocItemInfo struct {
	Def  defs.DefID
	Kind ast.AssocItemKind
	Name source.StringID
	Item ast.AssocItemID
	// Owner is the trait or impl definition.
	Owner defs.DefID
}

// Table is the definition registry built while the surface tree is
// constructed. It backs every query the elaborator asks about names,
// ownership and generics. Registration happens single-threaded; queries are
// safe for concurrent use afterwards.
type Table struct {
	mu sync.RWMutex

	kinds  []defs.DefKind
	names  []source.StringID
	spans  []source.Span
	owners []defs.DefID
	public []bool

	items      map[defs.DefID]ast.ItemID
	assoc      map[defs.DefID][]AssocItemInfo
	assocByDef map[defs.DefID]AssocItemInfo
	variants   map[defs.DefID][]defs.DefID

	// inherentImpls maps an ADT def to its inherent impl defs.
	inherentImpls map[defs.DefID][]defs.DefID
	// traitImpls maps a trait def to the impls implementing it.
	traitImpls map[defs.DefID][]defs.DefID

	generics map[defs.DefID]*defs.Generics
}

func NewTable() *Table {
	t := &Table{
		items:         make(map[defs.DefID]ast.ItemID),
		assoc:         make(map[defs.DefID][]AssocItemInfo),
		assocByDef:    make(map[defs.DefID]AssocItemInfo),
		variants:      make(map[defs.DefID][]defs.DefID),
		inherentImpls: make(map[defs.DefID][]defs.DefID),
		traitImpls:    make(map[defs.DefID][]defs.DefID),
		generics:      make(map[defs.DefID]*defs.Generics),
	}
	// слот 0 зарезервирован
	t.kinds = append(t.kinds, defs.DefUnknown)
	t.names = append(t.names, source.NoStringID)
	t.spans = append(t.spans, source.Span{})
	t.owners = append(t.owners, defs.NoDefID)
	t.public = append(t.public, false)
	return t
}

// NewDef allocates a definition. Owner is the lexical parent, NoDefID for
// top-level items.
func (t *Table) NewDef(kind defs.DefKind, name source.StringID, span source.Span, owner defs.DefID) defs.DefID {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := safecast.Conv[uint32](len(t.kinds))
	if err != nil {
		panic(fmt.Errorf("len(defs) overflow: %w", err))
	}
	id := defs.DefID(n)
	t.kinds = append(t.kinds, kind)
	t.names = append(t.names, name)
	t.spans = append(t.spans, span)
	t.owners = append(t.owners, owner)
	t.public = append(t.public, true)
	return id
}

// BindItem links a definition to its surface item.
func (t *Table) BindItem(def defs.DefID, item ast.ItemID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[def] = item
}

// SetPrivate marks a definition non-public.
func (t *Table) SetPrivate(def defs.DefID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(def) < len(t.public) {
		t.public[def] = false
	}
}

// SetGenerics installs the flattened generics of a definition.
func (t *Table) SetGenerics(def defs.DefID, g *defs.Generics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generics[def] = g
}

// AddAssocItem registers a trait or impl member.
func (t *Table) AddAssocItem(owner defs.DefID, info AssocItemInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info.Owner = owner
	t.assoc[owner] = append(t.assoc[owner], info)
	t.assocByDef[info.Def] = info
}

// AssocItemOf resolves a member definition back to its descriptor.
func (t *Table) AssocItemOf(def defs.DefID) (AssocItemInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.assocByDef[def]
	return info, ok
}

// InstalledGenerics returns generics previously set via SetGenerics.
func (t *Table) InstalledGenerics(def defs.DefID) (*defs.Generics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.generics[def]
	return g, ok
}

// AddVariant registers an enum variant.
func (t *Table) AddVariant(enum, variant defs.DefID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.variants[enum] = append(t.variants[enum], variant)
}

// AddInherentImpl registers an inherent impl on an ADT.
func (t *Table) AddInherentImpl(adt, impl defs.DefID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inherentImpls[adt] = append(t.inherentImpls[adt], impl)
}

// AddTraitImpl registers an impl of a trait.
func (t *Table) AddTraitImpl(trait, impl defs.DefID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traitImpls[trait] = append(t.traitImpls[trait], impl)
}

func (t *Table) Kind(def defs.DefID) defs.DefKind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(def) >= len(t.kinds) {
		return defs.DefUnknown
	}
	return t.kinds[def]
}

func (t *Table) Name(def defs.DefID) source.StringID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(def) >= len(t.names) {
		return source.NoStringID
	}
	return t.names[def]
}

func (t *Table) Span(def defs.DefID) source.Span {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(def) >= len(t.spans) {
		return source.Span{}
	}
	return t.spans[def]
}

func (t *Table) Owner(def defs.DefID) defs.DefID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(def) >= len(t.owners) {
		return defs.NoDefID
	}
	return t.owners[def]
}

func (t *Table) IsPublic(def defs.DefID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(def) >= len(t.public) {
		return false
	}
	return t.public[def]
}

// ItemOf returns the surface item of a definition.
func (t *Table) ItemOf(def defs.DefID) ast.ItemID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.items[def]
}

// AssocItems returns the members of a trait or impl, declaration order.
func (t *Table) AssocItems(owner defs.DefID) []AssocItemInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.assoc[owner]
}

// AssocItemByName finds a member by name and kind.
func (t *Table) AssocItemByName(owner defs.DefID, name source.StringID, kind ast.AssocItemKind) (AssocItemInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, info := range t.assoc[owner] {
		if info.Name == name && info.Kind == kind {
			return info, true
		}
	}
	return AssocItemInfo{}, false
}

// Variants returns the variant defs of an enum.
func (t *Table) Variants(enum defs.DefID) []defs.DefID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.variants[enum]
}

// VariantByName finds an enum variant by name.
func (t *Table) VariantByName(enum defs.DefID, name source.StringID) (defs.DefID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.variants[enum] {
		if t.names[v] == name {
			return v, true
		}
	}
	return defs.NoDefID, false
}

// InherentImpls returns the inherent impl defs of an ADT.
func (t *Table) InherentImpls(adt defs.DefID) []defs.DefID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inherentImpls[adt]
}

// TraitImpls returns the impls of a trait.
func (t *Table) TraitImpls(trait defs.DefID) []defs.DefID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.traitImpls[trait]
}

func (t *Table) NumDefs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.kinds) - 1
}
