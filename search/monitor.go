package search

import (
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
)

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate steps and results during ranking.
type RankMonitor interface {
	Start(query, ownerID string)
	AfterLexical(hits []LexicalHit)
	AfterSemantic(hits []index.Hit)
	SemanticDegraded(err error)
	StaleHit(noteID string)
	Finish(results []*core.ScoredNote)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                {}
func (n *noopMonitor) AfterLexical(_ []LexicalHit)      {}
func (n *noopMonitor) AfterSemantic(_ []index.Hit)      {}
func (n *noopMonitor) SemanticDegraded(_ error)         {}
func (n *noopMonitor) StaleHit(_ string)                {}
func (n *noopMonitor) Finish(_ []*core.ScoredNote)      {}
