package session

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
	"github.com/abhisek/phasegate/internal/phase"
)

// Pending is what the learner is expected to act on next.
type Pending struct {
	Phase phase.ID

	// Item is set in KNOW, PROVE and MASTER while items remain.
	Item  *content.QuizItem
	Index int
	Total int

	Video      *content.Video
	Matching   *Matching
	Reflection *content.Rubric
}

// Matching is the SYNC exercise as shown to the learner. Order[k] is the
// pair index of the k-th displayed right-hand item.
type Matching struct {
	Left  []string
	Right []string
	Order []int
}

// PendingFor derives the pending work of a controller.
func PendingFor(ctrl *engine.Controller) Pending {
	st := ctrl.Status()
	lesson := ctrl.Machine().Lesson()
	p := Pending{Phase: st.Phase}
	if st.Completed {
		return p
	}

	switch st.Phase {
	case phase.Know, phase.Prove, phase.Master:
		items := lesson.Items(st.Phase)
		p.Total = len(items)
		if st.Answered < len(items) {
			it := items[st.Answered]
			p.Item, p.Index = &it, st.Answered
		}
	case phase.Do:
		v := lesson.Video
		p.Video = &v
	case phase.Sync:
		p.Matching = NewMatching(lesson.Matching, ctrl.SessionID())
	case phase.Reflect:
		r := lesson.Reflection
		p.Reflection = &r
	}
	return p
}

// NewMatching shuffles the right-hand items with a seed derived from the
// session id, so one session always sees the same order.
func NewMatching(pairs []content.MatchPair, sessionID string) *Matching {
	m := &Matching{}
	for i, p := range pairs {
		m.Left = append(m.Left, p.Left)
		m.Order = append(m.Order, i)
	}
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))
	rng.Shuffle(len(m.Order), func(i, j int) {
		m.Order[i], m.Order[j] = m.Order[j], m.Order[i]
	})
	for _, idx := range m.Order {
		m.Right = append(m.Right, pairs[idx].Right)
	}
	return m
}

// Resolve maps displayed choices (one per left item, indexes into Right)
// back to pair indexes. Out-of-range choices map to -1.
func (m *Matching) Resolve(displayed []int) []int {
	out := make([]int, len(displayed))
	for i, d := range displayed {
		if d < 0 || d >= len(m.Order) {
			out[i] = -1
			continue
		}
		out[i] = m.Order[d]
	}
	return out
}
