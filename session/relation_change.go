package session

// RelationChangeKind is the closed set of relation mutations a session can
// track (spec §4.F: "assigning to a relation-property registers a
// RelationChange (add | attach | remove | detach | update | sync)").
type RelationChangeKind int

const (
	Add RelationChangeKind = iota
	Attach
	Remove
	Detach
	UpdateChildren
	Sync
)

// RelationChange is one pending mutation to a relation's child set, keyed
// by (rootTable, relationName) as spec §4.F requires.
type RelationChange struct {
	RootTable    string
	RootPK       string
	RelationName string
	Kind         RelationChangeKind

	// Root is the owning entity; its Data supplies the typed primary-key
	// values used to build FK/pivot predicates (RootPK is only the
	// identity-map display key and loses type information).
	Root *TrackedEntity

	// Child is set for Add: a *TrackedEntity staged as New, to be flushed
	// alongside (and after) its parent.
	Child *TrackedEntity

	// IDs is set for Attach/Detach/Sync: target primary keys to
	// associate/disassociate (pivot rows for BelongsToMany, FK writes
	// otherwise).
	IDs []string

	// Updates is set for UpdateChildren: a column diff applied to every
	// child currently associated via this relation.
	Updates map[string]any

	// PivotColumns carries extra pivot-row columns for Add/Attach/Sync on
	// a BelongsToMany relation (e.g. a join-table "position" or
	// "created_at" column).
	PivotColumns map[string]any
}

// relationChangeProcessor accumulates RelationChanges in registration
// order within one flush round. It keeps a plain list: each change carries
// its RootTable, RootPK and RelationName, and the processor builds no index
// over them.
type relationChangeProcessor struct {
	ordered []*RelationChange
}

func newRelationChangeProcessor() *relationChangeProcessor {
	return &relationChangeProcessor{}
}

func (p *relationChangeProcessor) register(c *RelationChange) {
	p.ordered = append(p.ordered, c)
}

func (p *relationChangeProcessor) drain() []*RelationChange {
	out := p.ordered
	p.ordered = nil
	return out
}

// diffSync reduces a sync(ids) declaration against the current set of
// associated target PKs into attach/detach id lists (spec §4.F step 4:
// "sync(ids) is diffed against the current set and reduced to
// attach/detach").
func diffSync(current, desired []string) (attach, detach []string) {
	curSet := make(map[string]bool, len(current))
	for _, id := range current {
		curSet[id] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
		if !curSet[id] {
			attach = append(attach, id)
		}
	}
	for _, id := range current {
		if !desiredSet[id] {
			detach = append(detach, id)
		}
	}
	return attach, detach
}
