// Package rendercontext releases backend resources that were not used
// during the last frame.
package rendercontext

type TempDataHolder interface {
	ClearTempRenderData()
}

var global = NewStore()

func Use(dh TempDataHolder) { global.Use(dh) }
func Swap()                 { global.Swap() }

// Store tracks holders used since the previous Swap. Holders not used
// for a whole frame get ClearTempRenderData on the next Swap.
type Store struct {
	used    map[TempDataHolder]struct{}
	notUsed map[TempDataHolder]struct{}
}

func NewStore() *Store {
	return &Store{
		used:    make(map[TempDataHolder]struct{}),
		notUsed: make(map[TempDataHolder]struct{}),
	}
}

func (s *Store) Swap() {
	for dh := range s.notUsed {
		dh.ClearTempRenderData()
	}
	s.notUsed = s.used
	s.used = make(map[TempDataHolder]struct{})
}

func (s *Store) Use(dh TempDataHolder) {
	delete(s.notUsed, dh)
	s.used[dh] = struct{}{}
}

// Live is the number of holders that survived the last Swap or were used since.
func (s *Store) Live() int {
	n := len(s.used)
	for dh := range s.notUsed {
		if _, ok := s.used[dh]; !ok {
			n++
		}
	}
	return n
}
