// Package store persists a loaded dataset in LevelDB so the query service
// can restart without re-parsing the source files.
//
// Terms are dictionary-encoded to uint64 ids; triples are written under
// three key orderings (SPO, POS, OSP) so any bound combination of a triple
// pattern resolves to a single prefix scan. The store satisfies the same
// Match contract as the in-memory graph, which keeps the query engine
// agnostic about where the data lives.
package store

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/oaknational/currigraph/rdf"
)

// Key space prefixes. Dictionary entries map term bytes to ids and back;
// index entries hold the three triple orderings; metadata records what was
// loaded and when.
const (
	prefixDict = 'd'
	prefixTerm = 't'
	prefixSPO  = 's'
	prefixPOS  = 'p'
	prefixOSP  = 'o'
	prefixMeta = 'm'
)

var (
	metaName   = []byte{prefixMeta, 'n'}
	metaCount  = []byte{prefixMeta, 'c'}
	metaLoaded = []byte{prefixMeta, 'l'}
	metaNextID = []byte{prefixMeta, 'x'}
)

// Info describes the stored dataset.
type Info struct {
	Name     string
	Triples  int
	LoadedAt time.Time
}

// Store is a LevelDB-backed triple store. Reads may run concurrently;
// Load takes an exclusive lock and replaces the previous contents.
type Store struct {
	mu sync.RWMutex
	db *leveldb.DB

	// Decode cache, filled on load and lazily after reopening.
	cacheMu sync.Mutex
	terms   map[uint64]rdf.Term
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", path, err)
	}
	return &Store{db: db, terms: make(map[uint64]rdf.Term)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Load replaces the stored dataset with the triples of g.
func (s *Store) Load(g *rdf.Graph, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wipe(); err != nil {
		return fmt.Errorf("clearing previous dataset: %w", err)
	}

	ids := make(map[rdf.Term]uint64)
	terms := make(map[uint64]rdf.Term)
	var next uint64

	batch := new(leveldb.Batch)
	assign := func(t rdf.Term) uint64 {
		if id, ok := ids[t]; ok {
			return id
		}
		id := next
		next++
		ids[t] = id
		terms[id] = t
		encoded := encodeTerm(t)
		batch.Put(dictKey(encoded), idBytes(id))
		batch.Put(termKey(id), encoded)
		return id
	}

	count := 0
	g.ForEach(func(t rdf.Triple) bool {
		sid, pid, oid := assign(t.Subject), assign(t.Predicate), assign(t.Object)
		batch.Put(tripleKey(prefixSPO, sid, pid, oid), nil)
		batch.Put(tripleKey(prefixPOS, pid, oid, sid), nil)
		batch.Put(tripleKey(prefixOSP, oid, sid, pid), nil)
		count++
		return true
	})

	batch.Put(metaName, []byte(name))
	batch.Put(metaCount, idBytes(uint64(count)))
	batch.Put(metaLoaded, []byte(time.Now().UTC().Format(time.RFC3339)))
	batch.Put(metaNextID, idBytes(next))

	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("writing dataset batch: %w", err)
	}
	s.cacheMu.Lock()
	s.terms = terms
	s.cacheMu.Unlock()
	return nil
}

func (s *Store) wipe() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

// Info reads the load metadata. It returns ErrNotFound when nothing has
// been loaded yet.
func (s *Store) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{}
	if data, err := s.db.Get(metaName, nil); err == nil {
		info.Name = string(data)
	} else if err == leveldb.ErrNotFound {
		return info, ErrNotFound
	} else {
		return info, fmt.Errorf("reading dataset name: %w", err)
	}
	if data, err := s.db.Get(metaCount, nil); err == nil {
		info.Triples = int(binary.BigEndian.Uint64(data))
	} else if err != leveldb.ErrNotFound {
		return info, fmt.Errorf("reading triple count: %w", err)
	}
	if data, err := s.db.Get(metaLoaded, nil); err == nil {
		ts, perr := time.Parse(time.RFC3339, string(data))
		if perr != nil {
			return info, fmt.Errorf("parsing load timestamp: %w", perr)
		}
		info.LoadedAt = ts
	} else if err != leveldb.ErrNotFound {
		return info, fmt.Errorf("reading load timestamp: %w", err)
	}
	return info, nil
}

// Len returns the stored triple count.
func (s *Store) Len() int {
	info, err := s.Info()
	if err != nil {
		return 0
	}
	return info.Triples
}

// Match returns the triples matching the pattern. A nil term is a
// wildcard, mirroring the in-memory graph.
func (s *Store) Match(sub, pred, obj rdf.Term) []rdf.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sid, pid, oid uint64
		ok            bool
	)
	if sub != nil {
		if sid, ok = s.lookupID(sub); !ok {
			return nil
		}
	}
	if pred != nil {
		if pid, ok = s.lookupID(pred); !ok {
			return nil
		}
	}
	if obj != nil {
		if oid, ok = s.lookupID(obj); !ok {
			return nil
		}
	}

	// Pick the ordering whose prefix covers the bound positions.
	var prefix []byte
	var order byte
	switch {
	case sub != nil && pred != nil && obj != nil:
		order, prefix = prefixSPO, tripleKey(prefixSPO, sid, pid, oid)
	case sub != nil && pred != nil:
		order, prefix = prefixSPO, pairPrefix(prefixSPO, sid, pid)
	case sub != nil && obj != nil:
		order, prefix = prefixOSP, pairPrefix(prefixOSP, oid, sid)
	case sub != nil:
		order, prefix = prefixSPO, singlePrefix(prefixSPO, sid)
	case pred != nil && obj != nil:
		order, prefix = prefixPOS, pairPrefix(prefixPOS, pid, oid)
	case pred != nil:
		order, prefix = prefixPOS, singlePrefix(prefixPOS, pid)
	case obj != nil:
		order, prefix = prefixOSP, singlePrefix(prefixOSP, oid)
	default:
		order, prefix = prefixSPO, []byte{prefixSPO}
	}

	var out []rdf.Triple
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		t, err := s.decodeTripleKey(order, iter.Key())
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Triples returns every stored triple.
func (s *Store) Triples() []rdf.Triple {
	ts := s.Match(nil, nil, nil)
	rdf.SortTriples(ts)
	return ts
}

// Graph materializes the stored dataset as an in-memory graph.
func (s *Store) Graph() *rdf.Graph {
	g := rdf.NewGraph()
	g.AddAll(s.Match(nil, nil, nil))
	return g
}

func (s *Store) lookupID(t rdf.Term) (uint64, bool) {
	data, err := s.db.Get(dictKey(encodeTerm(t)), nil)
	if err != nil {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}

func (s *Store) lookupTerm(id uint64) (rdf.Term, error) {
	s.cacheMu.Lock()
	t, ok := s.terms[id]
	s.cacheMu.Unlock()
	if ok {
		return t, nil
	}
	data, err := s.db.Get(termKey(id), nil)
	if err != nil {
		return nil, fmt.Errorf("term id %d: %w", id, err)
	}
	t, err = decodeTerm(data)
	if err != nil {
		return nil, err
	}
	s.cacheMu.Lock()
	s.terms[id] = t
	s.cacheMu.Unlock()
	return t, nil
}

func (s *Store) decodeTripleKey(order byte, key []byte) (rdf.Triple, error) {
	if len(key) != 25 {
		return rdf.Triple{}, fmt.Errorf("malformed index key of length %d", len(key))
	}
	a := binary.BigEndian.Uint64(key[1:9])
	b := binary.BigEndian.Uint64(key[9:17])
	c := binary.BigEndian.Uint64(key[17:25])

	var sid, pid, oid uint64
	switch order {
	case prefixSPO:
		sid, pid, oid = a, b, c
	case prefixPOS:
		pid, oid, sid = a, b, c
	case prefixOSP:
		oid, sid, pid = a, b, c
	}

	sub, err := s.lookupTerm(sid)
	if err != nil {
		return rdf.Triple{}, err
	}
	pred, err := s.lookupTerm(pid)
	if err != nil {
		return rdf.Triple{}, err
	}
	obj, err := s.lookupTerm(oid)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subject: sub, Predicate: pred, Object: obj}, nil
}

func idBytes(id uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, id)
	return out
}

func dictKey(encoded []byte) []byte {
	return append([]byte{prefixDict}, encoded...)
}

func termKey(id uint64) []byte {
	return append([]byte{prefixTerm}, idBytes(id)...)
}

func tripleKey(order byte, a, b, c uint64) []byte {
	key := make([]byte, 0, 25)
	key = append(key, order)
	key = binary.BigEndian.AppendUint64(key, a)
	key = binary.BigEndian.AppendUint64(key, b)
	key = binary.BigEndian.AppendUint64(key, c)
	return key
}

func pairPrefix(order byte, a, b uint64) []byte {
	key := make([]byte, 0, 17)
	key = append(key, order)
	key = binary.BigEndian.AppendUint64(key, a)
	key = binary.BigEndian.AppendUint64(key, b)
	return key
}

func singlePrefix(order byte, a uint64) []byte {
	key := make([]byte, 0, 9)
	key = append(key, order)
	key = binary.BigEndian.AppendUint64(key, a)
	return key
}
