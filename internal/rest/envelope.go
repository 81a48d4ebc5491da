// Package rest normalizes replies from the catalog's REST service. The
// wire has two legacy shapes ({response: [{result: ...}]} and
// {responses: [{results: ...}]}); Envelope folds both into one stable,
// read-only view so no caller ever branches on the server generation.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventType is the severity of a server-side event.
type EventType string

const (
	EventInfo    EventType = "INFO"
	EventWarning EventType = "WARNING"
	EventError   EventType = "ERROR"
)

var validEventTypes = map[EventType]struct{}{
	EventInfo:    {},
	EventWarning: {},
	EventError:   {},
}

// Event is one server-side notice attached to a reply or a node.
type Event struct {
	Type    EventType `json:"type"`
	Name    string    `json:"name,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ErrMalformedResponse is returned when a reply carries neither a
// "responses" nor a legacy "response" array. Construction is fallible on
// purpose: a malformed reply is a transport contract violation the caller
// must not silently proceed past.
var ErrMalformedResponse = errors.New("rest: reply has no responses array")

// Node is one normalized response node. Results is the canonical slice
// regardless of which legacy alias the wire used; NumMatches carries
// numMatches/numTotalResults; DBTime carries the per-node time field.
type Node struct {
	Results    []any
	Events     []Event
	NumResults int64
	NumMatches int64
	DBTime     float64

	// raw keeps the node's numeric attributes for Count aggregation.
	raw map[string]any
}

// Envelope is the normalized, immutable view over one raw server reply.
type Envelope struct {
	APIVersion string
	Time       float64
	Events     []Event
	Params     map[string]any

	nodes []Node
}

// NewEnvelope parses a raw JSON reply and normalizes it.
func NewEnvelope(raw []byte) (*Envelope, error) {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("rest: decode reply: %w", err)
	}
	return NewEnvelopeFromMap(decoded)
}

// NewEnvelopeFromMap normalizes an already-decoded reply.
func NewEnvelopeFromMap(reply map[string]any) (*Envelope, error) {
	if reply == nil {
		return nil, ErrMalformedResponse
	}
	rawNodes, ok := reply["responses"].([]any)
	if !ok {
		rawNodes, ok = reply["response"].([]any)
	}
	if !ok {
		return nil, ErrMalformedResponse
	}

	env := &Envelope{
		APIVersion: asString(reply["apiVersion"]),
		Time:       asFloat(reply["time"]),
		Events:     parseEvents(reply["events"]),
	}
	if params, ok := reply["params"].(map[string]any); ok {
		env.Params = params
	} else if params, ok := reply["queryOptions"].(map[string]any); ok {
		env.Params = params
	}

	env.nodes = make([]Node, 0, len(rawNodes))
	for i, rawNode := range rawNodes {
		nodeMap, ok := rawNode.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rest: response node %d is not an object", i)
		}
		env.nodes = append(env.nodes, normalizeNode(nodeMap))
	}
	return env, nil
}

func normalizeNode(raw map[string]any) Node {
	node := Node{
		Events: parseEvents(raw["events"]),
		DBTime: asFloat(raw["time"]),
		raw:    raw,
	}
	if dbTime, ok := raw["dbTime"]; ok {
		node.DBTime = asFloat(dbTime)
	}
	if results, ok := raw["results"].([]any); ok {
		node.Results = results
	} else if results, ok := raw["result"].([]any); ok {
		node.Results = results
	} else {
		node.Results = []any{}
	}
	node.NumResults = int64(asFloat(raw["numResults"]))
	if node.NumResults == 0 {
		node.NumResults = int64(len(node.Results))
	}
	if matches, ok := raw["numMatches"]; ok {
		node.NumMatches = int64(asFloat(matches))
	} else if matches, ok := raw["numTotalResults"]; ok {
		node.NumMatches = int64(asFloat(matches))
	}
	return node
}

func parseEvents(raw any) []Event {
	items, ok := raw.([]any)
	if !ok {
		return []Event{}
	}
	events := make([]Event, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		events = append(events, Event{
			Type:    EventType(strings.ToUpper(asString(m["type"]))),
			Name:    asString(m["name"]),
			Message: asString(m["message"]),
		})
	}
	return events
}

func nodeIndex(node []int) int {
	if len(node) == 0 {
		return 0
	}
	return node[0]
}

func (e *Envelope) node(idx int) (*Node, error) {
	if idx < 0 || idx >= len(e.nodes) {
		return nil, fmt.Errorf("rest: node index %d out of range (%d nodes)", idx, len(e.nodes))
	}
	return &e.nodes[idx], nil
}

// Response returns one normalized node, defaulting to the first.
func (e *Envelope) Response(node ...int) (Node, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// Responses returns all normalized nodes.
func (e *Envelope) Responses() []Node {
	return append([]Node(nil), e.nodes...)
}

// Results returns one node's result slice, defaulting to the first node.
func (e *Envelope) Results(node ...int) ([]any, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return nil, err
	}
	return n.Results, nil
}

// Result returns one result item by index within a node.
func (e *Envelope) Result(item int, node ...int) (any, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return nil, err
	}
	if item < 0 || item >= len(n.Results) {
		return nil, fmt.Errorf("rest: result index %d out of range (%d results)", item, len(n.Results))
	}
	return n.Results[item], nil
}

// NumMatches returns a node's total match count, defaulting to the first.
func (e *Envelope) NumMatches(node ...int) (int64, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return 0, err
	}
	return n.NumMatches, nil
}

// ResultIterator walks results lazily. It is consumed once; callers
// re-iterate by requesting a fresh iterator from the envelope, which is
// safe since each call builds a new one.
type ResultIterator struct {
	nodes [][]any
	node  int
	item  int
}

// Next yields the next result, or false when exhausted.
func (it *ResultIterator) Next() (any, bool) {
	for it.node < len(it.nodes) {
		results := it.nodes[it.node]
		if it.item < len(results) {
			value := results[it.item]
			it.item++
			return value, true
		}
		it.node++
		it.item = 0
	}
	return nil, false
}

// ResultIterator returns a fresh iterator over all results across all
// nodes, or over one node when an index is given.
func (e *Envelope) ResultIterator(node ...int) (*ResultIterator, error) {
	if len(node) > 0 {
		n, err := e.node(node[0])
		if err != nil {
			return nil, err
		}
		return &ResultIterator{nodes: [][]any{n.Results}}, nil
	}
	all := make([][]any, len(e.nodes))
	for i := range e.nodes {
		all[i] = e.nodes[i].Results
	}
	return &ResultIterator{nodes: all}, nil
}

// TransformResults projects dotted result fields into flat objects: each
// result maps to {field: resolvedValue} for every requested field.
func (e *Envelope) TransformResults(fields []string, node ...int) ([]map[string]any, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return nil, err
	}
	projected := make([]map[string]any, 0, len(n.Results))
	for _, result := range n.Results {
		row := make(map[string]any, len(fields))
		for _, field := range fields {
			row[field] = dig(result, strings.Split(field, "."))
		}
		projected = append(projected, row)
	}
	return projected, nil
}

func dig(value any, segments []string) any {
	current := value
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return current
}

// EventsByType filters top-level events by severity. An empty type
// returns every event; an unrecognized type is a hard error so typos in
// calling code fail fast instead of silently matching nothing.
func (e *Envelope) EventsByType(eventType EventType) ([]Event, error) {
	return filterEvents(e.Events, eventType)
}

// ResultEvents filters one node's events by severity, defaulting to the
// first node. The same strict-type contract as EventsByType applies.
func (e *Envelope) ResultEvents(eventType EventType, node ...int) ([]Event, error) {
	n, err := e.node(nodeIndex(node))
	if err != nil {
		return nil, err
	}
	return filterEvents(n.Events, eventType)
}

func filterEvents(events []Event, eventType EventType) ([]Event, error) {
	if eventType == "" {
		return append([]Event(nil), events...), nil
	}
	if _, ok := validEventTypes[eventType]; !ok {
		return nil, fmt.Errorf("rest: unknown event type %q (want INFO, WARNING or ERROR)", eventType)
	}
	var filtered []Event
	for _, event := range events {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered, nil
}

// Count aggregates a numeric node attribute (numInserted, numUpdated,
// numDeleted, numMatches, ...). With no node index the attribute is
// summed across all nodes; with one, that node's value is returned.
func (e *Envelope) Count(attribute string, node ...int) (float64, error) {
	if len(node) > 0 {
		n, err := e.node(node[0])
		if err != nil {
			return 0, err
		}
		return asFloat(n.raw[attribute]), nil
	}
	total := 0.0
	for i := range e.nodes {
		total += asFloat(e.nodes[i].raw[attribute])
	}
	return total, nil
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
