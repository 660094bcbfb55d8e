package routing

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ruleDocument is the on-disk shape of one talkgroup rule (spec.md
// §3/§6: "Talkgroup-rule YAML: rule list as defined in §3").
type ruleDocument struct {
	TGID           uint32            `yaml:"tgid"`
	Slot           int               `yaml:"slot"`
	Active         bool              `yaml:"active"`
	AffiliatedOnly bool              `yaml:"affiliated_only"`
	Inclusion      []uint32          `yaml:"inclusion,omitempty"`
	Exclusion      []uint32          `yaml:"exclusion,omitempty"`
	Rewrites       map[uint32]uint32 `yaml:"rewrites,omitempty"` // peerID -> rewritten TGID; slot matches the rule's own
	On             []uint32          `yaml:"on,omitempty"`
	Off            []uint32          `yaml:"off,omitempty"`
	Timeout        int               `yaml:"timeout,omitempty"`
}

// LoadRuleFile reads a talkgroup-rule YAML file into a fresh RuleTable.
func LoadRuleFile(path string) (*RuleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []ruleDocument
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	table := NewRuleTable()
	for _, d := range docs {
		rule := NewTGRule(d.TGID, d.Slot)
		rule.Active = d.Active
		rule.AffiliatedOnly = d.AffiliatedOnly
		rule.Inclusion = d.Inclusion
		rule.Exclusion = d.Exclusion
		rule.On = d.On
		rule.Off = d.Off
		rule.Timeout = d.Timeout
		for peerID, tgid := range d.Rewrites {
			rule.Rewrites[peerID] = Rewrite{TGID: tgid, Slot: d.Slot}
		}
		table.Add(rule)
	}
	return table, nil
}

// CommitRuleFile writes the current rule set back to path (the
// REST "commit" operation spec.md §6 names).
func CommitRuleFile(table *RuleTable, path string) error {
	rules := table.All()
	docs := make([]ruleDocument, 0, len(rules))
	for _, r := range rules {
		r.mu.RLock()
		d := ruleDocument{
			TGID:           r.TGID,
			Slot:           r.Slot,
			Active:         r.Active,
			AffiliatedOnly: r.AffiliatedOnly,
			Inclusion:      r.Inclusion,
			Exclusion:      r.Exclusion,
			On:             r.On,
			Off:            r.Off,
			Timeout:        r.Timeout,
		}
		if len(r.Rewrites) > 0 {
			d.Rewrites = make(map[uint32]uint32, len(r.Rewrites))
			for peerID, rw := range r.Rewrites {
				d.Rewrites[peerID] = rw.TGID
			}
		}
		r.mu.RUnlock()
		docs = append(docs, d)
	}
	out, err := yaml.Marshal(docs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
