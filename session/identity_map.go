package session

import "sync"

// identityMap is bucket(tableName) -> map(pkKey -> *TrackedEntity), per
// spec §4.F. Owned by exactly one Session (spec §5).
type identityMap struct {
	mu      sync.Mutex
	buckets map[string]map[string]*TrackedEntity
}

func newIdentityMap() *identityMap {
	return &identityMap{buckets: map[string]map[string]*TrackedEntity{}}
}

func (im *identityMap) get(table, key string) (*TrackedEntity, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	bucket, ok := im.buckets[table]
	if !ok {
		return nil, false
	}
	e, ok := bucket[key]
	return e, ok
}

func (im *identityMap) track(e *TrackedEntity) {
	im.mu.Lock()
	defer im.mu.Unlock()
	bucket, ok := im.buckets[e.Table.Name]
	if !ok {
		bucket = map[string]*TrackedEntity{}
		im.buckets[e.Table.Name] = bucket
	}
	bucket[e.PK] = e
}

func (im *identityMap) remove(table, key string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.buckets[table], key)
}

// rekey moves an entity to a new PK bucket slot once its auto-generated
// primary key is known (post-insert).
func (im *identityMap) rekey(e *TrackedEntity, oldKey string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	bucket, ok := im.buckets[e.Table.Name]
	if !ok {
		bucket = map[string]*TrackedEntity{}
		im.buckets[e.Table.Name] = bucket
	}
	if oldKey != "" {
		delete(bucket, oldKey)
	}
	bucket[e.PK] = e
}

// peers returns every tracked entity for table, in no particular order.
// Package loader does not call it: a Batcher loads only the rows its caller
// passes in.
func (im *identityMap) peers(table string) []*TrackedEntity {
	im.mu.Lock()
	defer im.mu.Unlock()
	bucket := im.buckets[table]
	out := make([]*TrackedEntity, 0, len(bucket))
	for _, e := range bucket {
		out = append(out, e)
	}
	return out
}
