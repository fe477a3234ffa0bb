package scan

import (
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/extract"
)

// candidateSet is the running deduplicated result of a scan. It is owned
// by the dispatch loop and never shared with query workers.
type candidateSet struct {
	byKey map[string]*component.Candidate
	order []string
	pos   map[string]int // key -> index of its insertion in order

	duplicates int
	dead       int
}

func newCandidateSet() *candidateSet {
	return &candidateSet{
		byKey: make(map[string]*component.Candidate),
		pos:   make(map[string]int),
	}
}

// addFile inserts the candidates of one file in order and returns how
// many survived.
//
// A dead-import marker is never inserted. It also removes the candidate
// with the same key if this file introduced it; a component first seen
// in an earlier file is used there and stays.
func (s *candidateSet) addFile(cands []*component.Candidate) int {
	introduced := make(map[string]bool)
	for _, c := range cands {
		if !c.Valid() {
			continue
		}
		key := extract.Hash(c)
		if c.Type == component.DeadImport {
			s.dead++
			if introduced[key] {
				delete(s.byKey, key)
				delete(introduced, key)
			}
			continue
		}
		if _, ok := s.byKey[key]; ok {
			s.duplicates++
			continue
		}
		s.byKey[key] = c
		s.pos[key] = len(s.order)
		s.order = append(s.order, key)
		introduced[key] = true
	}
	return len(introduced)
}

// candidates returns the surviving candidates in insertion order.
func (s *candidateSet) candidates() []*component.Candidate {
	out := make([]*component.Candidate, 0, len(s.byKey))
	for i, k := range s.order {
		// A key removed by a dead-import marker may be re-added later;
		// only its latest insertion counts.
		if c, ok := s.byKey[k]; ok && s.pos[k] == i {
			out = append(out, c)
		}
	}
	return out
}
