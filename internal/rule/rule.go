package rule

import (
	"fmt"
	"time"
)

var ruleFields = []FieldSpec{
	{Key: "options", Kind: KindNode, Required: true, Build: buildOptions},
	{Key: "log", Kind: KindNode, Build: buildLog},
	{Key: "source", Kind: KindNode, Required: true, Build: buildSource},
	{Key: "dest", Kind: KindNode, Required: true, Build: buildDestination},
}

// Keys returns the top-level keys of a rule document in declaration order.
func Keys() []string {
	keys := make([]string, len(ruleFields))
	for i, spec := range ruleFields {
		keys[i] = spec.Key
	}
	return keys
}

// Rule is one backup job: options, optional logging, source and destination.
type Rule struct {
	Options *Options
	Log     *Log // nil when logging is not configured
	Source  *Source
	Dest    *Destination
}

// New builds a Rule from a parsed configuration document.
func New(raw map[string]any) (*Rule, error) {
	f, err := resolve(rootNode, raw, ruleFields)
	if err != nil {
		return nil, err
	}
	r := &Rule{
		Options: f["options"].(*Options),
		Source:  f["source"].(*Source),
		Dest:    f["dest"].(*Destination),
	}
	if l, ok := f["log"].(*Log); ok {
		r.Log = l
	}
	return r, nil
}

// SetDryRun overrides options.dryrun after construction.
func (r *Rule) SetDryRun(dryRun bool) {
	r.Options.DryRun = dryRun
}

func (r *Rule) nodes() []Node {
	nodes := []Node{r.Options}
	if r.Log != nil {
		nodes = append(nodes, r.Log)
	}
	return append(nodes, r.Source, r.Dest)
}

// OptionalArgs returns the flags of options, log, source and dest in that order.
func (r *Rule) OptionalArgs(at time.Time) ([]string, error) {
	return aggregate(at, false, r.nodes()...)
}

// PositionalArgs returns the source and destination endpoints.
func (r *Rule) PositionalArgs(at time.Time) ([]string, error) {
	return aggregate(at, true, r.nodes()...)
}

// Argv returns the full command line for tool rendered at at.
func (r *Rule) Argv(tool string, at time.Time) ([]string, error) {
	optional, err := r.OptionalArgs(at)
	if err != nil {
		return nil, fmt.Errorf("building optional arguments: %w", err)
	}
	positional, err := r.PositionalArgs(at)
	if err != nil {
		return nil, fmt.Errorf("building positional arguments: %w", err)
	}
	argv := make([]string, 0, 1+len(optional)+len(positional))
	argv = append(argv, tool)
	argv = append(argv, optional...)
	return append(argv, positional...), nil
}

// SourceLabel names the source for summaries and notifications.
func (r *Rule) SourceLabel() string {
	if r.Source.SSH != nil {
		return r.Source.SSH.Prefix() + r.Source.Dirpath
	}
	return r.Source.Dirpath
}

// DestLabel names the destination for summaries and notifications.
func (r *Rule) DestLabel() string {
	if r.Dest.SSH != nil {
		return r.Dest.SSH.Prefix() + r.Dest.Dirpath
	}
	return r.Dest.Dirpath
}
