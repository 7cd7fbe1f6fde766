// Package catalog implements the immutable, process-scoped registry of
// destructive-command packs consumed by the decision engine.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Tier orders packs for evaluation. Order is a stable invariant observable
// in the trace (spec.md §3).
type Tier string

const (
	TierSafe             Tier = "safe"
	TierCore             Tier = "core"
	TierSystem           Tier = "system"
	TierInfrastructure   Tier = "infrastructure"
	TierCloud            Tier = "cloud"
	TierKubernetes       Tier = "kubernetes"
	TierContainers       Tier = "containers"
	TierDatabase         Tier = "database"
	TierPackageManagers  Tier = "package_managers"
	TierStrictGit        Tier = "strict_git"
	TierCICD             Tier = "cicd"
)

// tierOrder fixes the evaluation order for tiers, lowest index first.
var tierOrder = map[Tier]int{
	TierSafe:            0,
	TierCore:            1,
	TierSystem:          2,
	TierInfrastructure:  3,
	TierCloud:           4,
	TierKubernetes:      5,
	TierContainers:      6,
	TierDatabase:        7,
	TierPackageManagers: 8,
	TierStrictGit:       9,
	TierCICD:            10,
}

// Severity classifies how destructive a matched pattern is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Category distinguishes safe from destructive patterns within a pack.
type Category string

const (
	CategorySafe        Category = "safe"
	CategoryDestructive Category = "destructive"
)

// Mode describes how a destructive match should be treated downstream.
type Mode string

const (
	ModeDeny Mode = "deny"
	ModeWarn Mode = "warn"
	ModeLog  Mode = "log"
)

// Pattern is a single compiled rule belonging to exactly one pack.
type Pattern struct {
	PackID   string
	Name     string
	Regex    *regexp.Regexp
	Severity Severity
	Reason   string
	Category Category
	Mode     Mode
}

// RuleID returns the stable "${pack_id}:${name}" identifier (spec.md GLOSSARY).
func (p *Pattern) RuleID() string {
	return p.PackID + ":" + p.Name
}

// Pack groups related safe/destructive patterns under a tier with a set of
// trigger keywords gating quick-reject.
type Pack struct {
	PackID          string
	Tier            Tier
	Safe            []*Pattern
	Destructive     []*Pattern
	TriggerKeywords map[string]struct{}
	Enabled         bool
}

// PatternSpec is the literal, pre-compile description of a rule used when
// building a Pack; see packs.go for the concrete packs.
type PatternSpec struct {
	Name     string
	Regex    string
	Severity Severity
	Reason   string
	Mode     Mode
}

// Catalog is the immutable, process-scoped set of enabled packs.
type Catalog struct {
	packs []*Pack
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// optInTiers are bundled but start disabled — stricter companions to an
// always-on tier the teacher's flatter pattern scheme never separated
// out. A caller re-enables one with (*Catalog).SetEnabled per pack_id.
var optInTiers = map[Tier]struct{}{
	TierStrictGit: {},
	TierCICD:      {},
}

// Default returns the process-wide catalog built from the bundled pack
// table, built exactly once (spec.md §4.1: "loaded once at startup ... and
// never mutated thereafter").
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Build(AllPackBuilders())
		if err != nil {
			// Build-time validation failures in bundled packs are a
			// programming error, not a runtime condition; matches the
			// teacher's builtin-pattern panic in core/patterns.go.
			panic(fmt.Sprintf("catalog: invalid bundled pack table: %v", err))
		}
		for _, p := range c.AllPacks() {
			if _, optIn := optInTiers[p.Tier]; optIn {
				p.Enabled = false
			}
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Build compiles a set of pack definitions into a validated Catalog.
//
// Build-time validation (spec.md §4.1): every regex compiles, every
// pattern belongs to exactly one pack, rule_ids are globally unique, and
// every destructive pattern has a severity and reason.
func Build(defs []PackDef) (*Catalog, error) {
	seen := make(map[string]struct{})
	packs := make([]*Pack, 0, len(defs))

	for _, def := range defs {
		if def.PackID == "" {
			return nil, fmt.Errorf("catalog: pack with empty pack_id")
		}
		pack := &Pack{
			PackID:          def.PackID,
			Tier:            def.Tier,
			TriggerKeywords: make(map[string]struct{}, len(def.TriggerKeywords)),
			Enabled:         true,
		}
		for _, kw := range def.TriggerKeywords {
			pack.TriggerKeywords[kw] = struct{}{}
		}

		for _, spec := range def.Safe {
			p, err := compile(def.PackID, spec, CategorySafe)
			if err != nil {
				return nil, err
			}
			if err := registerRuleID(seen, p.RuleID()); err != nil {
				return nil, err
			}
			pack.Safe = append(pack.Safe, p)
		}

		for _, spec := range def.Destructive {
			if spec.Severity == "" {
				return nil, fmt.Errorf("catalog: pattern %s:%s is destructive but has no severity", def.PackID, spec.Name)
			}
			if spec.Reason == "" {
				return nil, fmt.Errorf("catalog: pattern %s:%s is destructive but has no reason", def.PackID, spec.Name)
			}
			p, err := compile(def.PackID, spec, CategoryDestructive)
			if err != nil {
				return nil, err
			}
			if err := registerRuleID(seen, p.RuleID()); err != nil {
				return nil, err
			}
			pack.Destructive = append(pack.Destructive, p)
		}

		packs = append(packs, pack)
	}

	sortPacks(packs)
	return &Catalog{packs: packs}, nil
}

func registerRuleID(seen map[string]struct{}, ruleID string) error {
	if _, ok := seen[ruleID]; ok {
		return fmt.Errorf("catalog: duplicate rule_id %q", ruleID)
	}
	seen[ruleID] = struct{}{}
	return nil
}

func compile(packID string, spec PatternSpec, category Category) (*Pattern, error) {
	re, err := regexp.Compile(spec.Regex)
	if err != nil {
		return nil, fmt.Errorf("catalog: pack %s pattern %s: invalid regex %q: %w", packID, spec.Name, spec.Regex, err)
	}
	mode := spec.Mode
	if mode == "" {
		if category == CategoryDestructive {
			mode = ModeDeny
		} else {
			mode = ModeLog
		}
	}
	return &Pattern{
		PackID:   packID,
		Name:     spec.Name,
		Regex:    re,
		Severity: spec.Severity,
		Reason:   spec.Reason,
		Category: category,
		Mode:     mode,
	}, nil
}

// sortPacks orders packs first by tier (fixed order), then lexicographically
// by pack_id — the stable invariant of spec.md §3.
func sortPacks(packs []*Pack) {
	sort.SliceStable(packs, func(i, j int) bool {
		ti, tj := tierOrder[packs[i].Tier], tierOrder[packs[j].Tier]
		if ti != tj {
			return ti < tj
		}
		return packs[i].PackID < packs[j].PackID
	})
}

// EnabledPacks yields packs in the fixed tier-then-lex order, filtered to
// those currently enabled.
func (c *Catalog) EnabledPacks() []*Pack {
	out := make([]*Pack, 0, len(c.packs))
	for _, p := range c.packs {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// AllPacks returns every pack regardless of enablement, in stable order.
func (c *Catalog) AllPacks() []*Pack {
	return append([]*Pack(nil), c.packs...)
}

// SetEnabled toggles whether a pack participates in EnabledPacks, and
// reports whether a pack with that pack_id exists. Opt-in tiers such as
// strict_git start disabled (see Default); this re-enables one per pack.
func (c *Catalog) SetEnabled(packID string, enabled bool) bool {
	for _, p := range c.packs {
		if p.PackID == packID {
			p.Enabled = enabled
			return true
		}
	}
	return false
}

// TriggerKeywords returns the union of trigger keywords across all enabled
// packs, for the quick-reject filter (spec.md §4.3).
func (c *Catalog) TriggerKeywords() map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range c.EnabledPacks() {
		for kw := range p.TriggerKeywords {
			out[kw] = struct{}{}
		}
	}
	return out
}

// Lookup finds a pattern by its rule_id across all packs (enabled or not).
func (c *Catalog) Lookup(ruleID string) (*Pattern, bool) {
	for _, p := range c.packs {
		for _, pat := range p.Safe {
			if pat.RuleID() == ruleID {
				return pat, true
			}
		}
		for _, pat := range p.Destructive {
			if pat.RuleID() == ruleID {
				return pat, true
			}
		}
	}
	return nil, false
}

// PackDef is the literal definition consumed by Build; AllPackBuilders()
// returns the bundled table.
type PackDef struct {
	PackID          string
	Tier            Tier
	TriggerKeywords []string
	Safe            []PatternSpec
	Destructive     []PatternSpec
}
