package model

import "fmt"

// CondEvaluator evaluates a gateway edge's boolean script against the
// current (workitem, event) context. The model package never evaluates
// scripts itself; the kernel supplies this via the rule engine, keeping the
// model package free of a rule-engine dependency.
type CondEvaluator func(script string) (bool, error)

// SuccessorResult is the outcome of walking an Event's successor chain
// through zero or more gateways down to Task(s).
type SuccessorResult struct {
	TaskID   int   // the primary path's resting Task
	Siblings []int // Task ids reached via split-gateway non-primary edges
}

// ResolveSuccessor walks from start through conditional and split gateways
// until every path terminates in a Task: every Event has exactly one
// outgoing path terminating in a Task, resolved by the kernel's gateway
// resolution algorithm.
func (m *Model) ResolveSuccessor(start NodeRef, eval CondEvaluator) (SuccessorResult, error) {
	var siblings []int

	var walk func(n NodeRef, visited map[string]bool) (int, error)
	walk = func(n NodeRef, visited map[string]bool) (int, error) {
		if n.Kind == NodeTask {
			if _, ok := m.GetTask(n.ID); !ok {
				return 0, ErrUndefinedTask(n.ID)
			}
			return n.ID, nil
		}

		if visited[n.Key] {
			return 0, ErrInvalidModel(n.Key, fmt.Errorf("cyclic gateway follow-up"))
		}
		next := make(map[string]bool, len(visited)+1)
		for k := range visited {
			next[k] = true
		}
		next[n.Key] = true

		gw, ok := m.GetGateway(n.Key)
		if !ok {
			return 0, ErrInvalidModel(n.Key, fmt.Errorf("gateway not found"))
		}

		switch gw.Kind {
		case GatewayConditional:
			var elseEdge *Edge
			for i := range gw.Edges {
				e := &gw.Edges[i]
				if e.IsElse {
					elseEdge = e
					continue
				}
				matched, err := eval(e.Condition)
				if err != nil {
					return 0, err
				}
				if matched {
					return walk(e.Next, next)
				}
			}
			if elseEdge == nil {
				return 0, ErrInvalidModel(n.Key, fmt.Errorf("conditional gateway missing mandatory else edge"))
			}
			return walk(elseEdge.Next, next)

		case GatewaySplit:
			var primary *Edge
			for i := range gw.Edges {
				e := &gw.Edges[i]
				matched, err := eval(e.Condition)
				if err != nil {
					return 0, err
				}
				if !matched {
					continue
				}
				if e.IsPrimary {
					primary = e
					continue
				}
				sid, err := walk(e.Next, next)
				if err != nil {
					return 0, err
				}
				siblings = append(siblings, sid)
			}
			if primary == nil {
				return 0, ErrInvalidModel(n.Key, fmt.Errorf("split gateway missing primary edge among matched conditions"))
			}
			return walk(primary.Next, next)

		default:
			return 0, ErrInvalidModel(n.Key, fmt.Errorf("unknown gateway kind"))
		}
	}

	taskID, err := walk(start, map[string]bool{})
	if err != nil {
		return SuccessorResult{}, err
	}
	return SuccessorResult{TaskID: taskID, Siblings: siblings}, nil
}
