package ast

// главные сущености
type (
	ItemID uint32
	TypeID uint32
	BodyID uint32
)

// подсущности
type (
	PayloadID   uint32
	LifetimeID  uint32
	BinderID    uint32
	PathID      uint32
	ConstArgID  uint32
	AssocItemID uint32
	PredicateID uint32
)

const (
	NoItemID      ItemID      = 0
	NoTypeID      TypeID      = 0
	NoBodyID      BodyID      = 0
	NoPayloadID   PayloadID   = 0
	NoLifetimeID  LifetimeID  = 0
	NoBinderID    BinderID    = 0
	NoPathID      PathID      = 0
	NoConstArgID  ConstArgID  = 0
	NoAssocItemID AssocItemID = 0
	NoPredicateID PredicateID = 0
)

func (id ItemID) IsValid() bool      { return id != NoItemID }
func (id TypeID) IsValid() bool      { return id != NoTypeID }
func (id BodyID) IsValid() bool      { return id != NoBodyID }
func (id PayloadID) IsValid() bool   { return id != NoPayloadID }
func (id LifetimeID) IsValid() bool  { return id != NoLifetimeID }
func (id BinderID) IsValid() bool    { return id != NoBinderID }
func (id PathID) IsValid() bool      { return id != NoPathID }
func (id ConstArgID) IsValid() bool  { return id != NoConstArgID }
func (id AssocItemID) IsValid() bool { return id != NoAssocItemID }
func (id PredicateID) IsValid() bool { return id != NoPredicateID }
