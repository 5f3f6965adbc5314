// Package dup detects near-duplicate statement blocks across the whole
// corpus. Blocks are normalized so renamed variables and changed literals
// still match; candidate pairs are pruned through hash buckets before the
// pairwise similarity scoring.
package dup

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"smellwatch/internal/engine/parser"
	"smellwatch/internal/engine/rules"
)

// Block is a normalized statement sequence taken from one function body.
type Block struct {
	Unit      string
	Owner     string
	Stmts     []string // per-statement structural fingerprints
	StartLine int
	EndLine   int
}

type Detector struct {
	similarity    float64
	minStatements int
}

func NewDetector(similarity float64, minStatements int) *Detector {
	return &Detector{similarity: similarity, minStatements: minStatements}
}

// ExtractBlocks pulls one block per function body with enough statements.
// Extraction is per-unit and safe to run in parallel across units.
func (d *Detector) ExtractBlocks(unit *parser.SourceUnit) []Block {
	tree := unit.Tree
	var blocks []Block

	tree.Walk(tree.Root(), func(id parser.NodeID, n *parser.Node) bool {
		if n.Kind != parser.KindFunctionDef {
			return true
		}
		for _, childID := range n.Children {
			body := tree.Node(childID)
			if body.Kind != parser.KindBlock {
				continue
			}
			if len(body.Children) < d.minStatements {
				continue
			}
			stmts := make([]string, 0, len(body.Children))
			for _, stmtID := range body.Children {
				stmts = append(stmts, Fingerprint(tree, stmtID))
			}
			blocks = append(blocks, Block{
				Unit:      unit.Path,
				Owner:     unit.FunctionName(id),
				Stmts:     stmts,
				StartLine: body.Span.StartLine,
				EndLine:   body.Span.EndLine,
			})
		}
		return true
	})

	return blocks
}

// Fingerprint renders a statement subtree as its structural shape: node
// kinds with identifiers and literal values elided, so blocks differing
// only in names or constants produce identical fingerprints.
func Fingerprint(tree *parser.Tree, id parser.NodeID) string {
	var sb strings.Builder
	writeFingerprint(tree, id, &sb)
	return sb.String()
}

func writeFingerprint(tree *parser.Tree, id parser.NodeID, sb *strings.Builder) {
	node := tree.Node(id)
	switch {
	case node.Kind == parser.KindName && node.Is(parser.FlagAttr):
		sb.WriteString("attr")
	case node.Kind == parser.KindName:
		sb.WriteString("var")
	case node.Kind == parser.KindLiteral:
		sb.WriteString("lit_")
		sb.WriteString(node.RawKind)
	default:
		sb.WriteString(node.RawKind)
		if len(node.Children) > 0 {
			sb.WriteByte('(')
			for i, child := range node.Children {
				if i > 0 {
					sb.WriteByte(',')
				}
				writeFingerprint(tree, child, sb)
			}
			sb.WriteByte(')')
		}
	}
}

type bucketKey struct {
	band int
	hash uint64
}

type pair struct {
	a, b int
}

// Detect scores candidate pairs and clusters the matches into duplicate
// groups, one finding per group member.
func (d *Detector) Detect(blocks []Block) []rules.Finding {
	if len(blocks) < 2 {
		return nil
	}

	// Bucket by (length band, statement hash). Any pair scoring at or
	// above a positive threshold shares at least one statement fingerprint
	// (its LCS is nonzero), so probing every distinct statement hash over
	// the band spread derived from the threshold never drops a passing
	// pair. A zero threshold admits pairs with nothing in common, so no
	// hash pruning is possible and every block lands in one bucket.
	buckets := make(map[bucketKey][]int)
	spread := bandSpread(d.similarity)
	for i, block := range blocks {
		if d.similarity <= 0 {
			buckets[bucketKey{}] = append(buckets[bucketKey{}], i)
			continue
		}
		band := bits.Len(uint(len(block.Stmts)))
		hashes := make(map[uint64]bool, len(block.Stmts))
		for _, stmt := range block.Stmts {
			hashes[xxhash.Sum64String(stmt)] = true
		}
		for h := range hashes {
			for b := band; b <= band+spread; b++ {
				key := bucketKey{b, h}
				buckets[key] = append(buckets[key], i)
			}
		}
	}

	seen := make(map[pair]bool)
	adjacency := newUnionFind(len(blocks))
	best := make(map[int]float64)

	for _, members := range buckets {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				p := pair{members[x], members[y]}
				if p.a > p.b {
					p.a, p.b = p.b, p.a
				}
				if p.a == p.b || seen[p] {
					continue
				}
				seen[p] = true

				score := Similarity(blocks[p.a].Stmts, blocks[p.b].Stmts)
				if score < d.similarity {
					continue
				}
				adjacency.union(p.a, p.b)
				if score > best[p.a] {
					best[p.a] = score
				}
				if score > best[p.b] {
					best[p.b] = score
				}
			}
		}
	}

	return d.report(blocks, adjacency, best)
}

// bandSpread is how many neighboring power-of-two length bands a block
// must probe beyond its own. A score of at least s bounds the length
// ratio of a passing pair by (2-s)/s, and band indexes are logarithmic,
// so band distance never exceeds ceil(log2((2-s)/s)).
func bandSpread(s float64) int {
	if s <= 0 || s > 1 {
		return 0
	}
	ratio := (2 - s) / s
	return int(math.Ceil(math.Log2(ratio)))
}

// Similarity is 2*LCS(a,b) / (len(a)+len(b)), in [0,1]. Symmetric by
// construction.
func Similarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

func (d *Detector) report(blocks []Block, uf *unionFind, best map[int]float64) []rules.Finding {
	groups := make(map[int][]int)
	for i := range blocks {
		if uf.size(i) > 1 {
			groups[uf.find(i)] = append(groups[uf.find(i)], i)
		}
	}

	var findings []rules.Finding
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			a, b := blocks[members[i]], blocks[members[j]]
			if a.Unit != b.Unit {
				return a.Unit < b.Unit
			}
			return a.StartLine < b.StartLine
		})

		for _, idx := range members {
			block := blocks[idx]
			var related []rules.Location
			var peers []string
			for _, other := range members {
				if other == idx {
					continue
				}
				peer := blocks[other]
				related = append(related, rules.Location{
					File:    peer.Unit,
					Line:    peer.StartLine,
					EndLine: peer.EndLine,
				})
				peers = append(peers, fmt.Sprintf("%s() (%s:%d-%d)", peer.Owner, peer.Unit, peer.StartLine, peer.EndLine))
			}
			findings = append(findings, rules.Finding{
				RuleID:   rules.RuleDuplicatedCode,
				Rule:     "DuplicatedCode",
				Severity: rules.SeverityMedium,
				File:     block.Unit,
				Line:     block.StartLine,
				EndLine:  block.EndLine,
				Message: fmt.Sprintf("Duplicated code block (%d statements) in '%s' also appears in: %s",
					len(block.Stmts), block.Owner, strings.Join(peers, ", ")),
				Metrics: map[string]float64{
					"statements": float64(len(block.Stmts)),
					"members":    float64(len(members)),
					"similarity": best[idx],
				},
				Related: related,
			})
		}
	}

	rules.Sort(findings)
	return findings
}

type unionFind struct {
	parent []int
	rank   []int
	count  []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
		count:  make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.count[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.count[ra] += uf.count[rb]
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

func (uf *unionFind) size(x int) int {
	return uf.count[uf.find(x)]
}
