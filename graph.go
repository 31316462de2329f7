package stateless

import (
	"context"
	"fmt"
	"image/color"
	"sort"
	"strings"
	"text/template"
	"unicode"
)

// GraphConfiguration holds options for ToGraph's DOT rendering.
type GraphConfiguration struct {
	OmitIgnoredTransitions   bool
	OmitReentrantTransitions bool
	OmitInternalTransitions bool

	IgnoredTransitionColor   color.Color
	ReentrantTransitionColor color.Color
	InternalTransitionColor  color.Color
}

// GraphOption configures a ToGraph call. Options are applied in order.
type GraphOption func(*GraphConfiguration)

// OmitIgnoredTransitions excludes Ignore()-configured edges from the graph.
func OmitIgnoredTransitions() GraphOption {
	return func(c *GraphConfiguration) { c.OmitIgnoredTransitions = true }
}

// OmitReentrantTransitions excludes PermitReentry()-configured edges.
func OmitReentrantTransitions() GraphOption {
	return func(c *GraphConfiguration) { c.OmitReentrantTransitions = true }
}

// OmitInternalTransitions excludes InternalTransition()-configured edges.
func OmitInternalTransitions() GraphOption {
	return func(c *GraphConfiguration) { c.OmitInternalTransitions = true }
}

type graph[S State, T Trigger] struct {
	config GraphConfiguration
	sm     *StateMachine[S, T]
}

func newGraph[S State, T Trigger](sm *StateMachine[S, T], opts ...GraphOption) *graph[S, T] {
	g := &graph[S, T]{sm: sm}
	for _, opt := range opts {
		opt(&g.config)
	}
	return g
}

func (g *graph[S, T]) render() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph {\n\tcompound=true;\n\tnode [shape=Mrecord];\n\trankdir=\"LR\";\n\tlabel=\"%s\";\n\n", g.sm.id))

	stateList := make([]*stateRepresentation[S, T], 0, len(g.sm.stateConfig))
	for _, st := range g.sm.stateConfig {
		stateList = append(stateList, st)
	}
	sort.Slice(stateList, func(i, j int) bool {
		return fmt.Sprint(stateList[i].State) < fmt.Sprint(stateList[j].State)
	})

	for _, sr := range stateList {
		if sr.Superstate == nil {
			sb.WriteString(g.formatOneState(sr, 1))
		}
	}
	for _, sr := range stateList {
		if sr.HasInitialState {
			if dest, ok := g.sm.stateConfig[sr.InitialTransitionTarget]; ok {
				src := clusterStr(sr.State, true, true)
				sb.WriteString(g.formatOneLine(src, str(dest.State, true), "", nil))
			}
		}
	}
	for _, sr := range stateList {
		sb.WriteString(g.formatAllStateTransitions(sr))
	}
	if initialState, err := g.sm.State(context.Background()); err == nil {
		sb.WriteString("\tinit [label=\"\", shape=point];\n")
		sb.WriteString(fmt.Sprintf("\tinit -> %s\n", str(initialState, true)))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (g *graph[S, T]) formatActions(sr *stateRepresentation[S, T]) string {
	es := make([]string, 0, len(sr.EntryActions)+len(sr.ExitActions)+len(sr.ActivateActions)+len(sr.DeactivateActions))
	for _, act := range sr.ActivateActions {
		es = append(es, fmt.Sprintf("activated / %s", esc(act.Description.String(), false)))
	}
	for _, act := range sr.DeactivateActions {
		es = append(es, fmt.Sprintf("deactivated / %s", esc(act.Description.String(), false)))
	}
	for _, act := range sr.EntryActions {
		if act.Trigger == nil {
			es = append(es, fmt.Sprintf("entry / %s", esc(act.Description.String(), false)))
		}
	}
	for _, act := range sr.ExitActions {
		if act.Trigger == nil {
			es = append(es, fmt.Sprintf("exit / %s", esc(act.Description.String(), false)))
		}
	}
	return strings.Join(es, "\\n")
}

func (g *graph[S, T]) formatOneState(sr *stateRepresentation[S, T], level int) string {
	indent := strings.Repeat("\t", level)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s%s [label=\"%s", indent, str(sr.State, true), str(sr.State, false)))
	if act := g.formatActions(sr); act != "" {
		if len(sr.Substates) == 0 {
			sb.WriteString("|")
		} else {
			sb.WriteString("\\n----------\\n")
		}
		sb.WriteString(act)
	}
	sb.WriteString("\"];\n")
	if len(sr.Substates) != 0 {
		sb.WriteString(fmt.Sprintf("%ssubgraph %s {\n%s\tlabel=\"Substates of\\n%s\";\n", indent, clusterStr(sr.State, true, false), indent, str(sr.State, false)))
		sb.WriteString(fmt.Sprintf("%s\tstyle=\"dashed\";\n", indent))
		if sr.HasInitialState {
			sb.WriteString(fmt.Sprintf("%s\t\"%s\" [label=\"\", shape=point];\n", indent, clusterStr(sr.State, false, true)))
		}
		for _, substate := range sr.Substates {
			sb.WriteString(g.formatOneState(substate, level+1))
		}
		sb.WriteString(indent + "}\n")
	}
	return sb.String()
}

func (g *graph[S, T]) getEntryActions(ab []actionBehaviour[S, T], t T) []string {
	var actions []string
	for _, ea := range ab {
		if ea.Trigger != nil && *ea.Trigger == t {
			actions = append(actions, esc(ea.Description.String(), false))
		}
	}
	return actions
}

func (g *graph[S, T]) formatAllStateTransitions(sr *stateRepresentation[S, T]) string {
	var sb strings.Builder

	triggerList := make([]triggerBehaviour[S, T], 0, len(sr.TriggerBehaviours))
	for _, trig := range sr.triggerOrder {
		triggerList = append(triggerList, sr.TriggerBehaviours[trig]...)
	}

	for _, trigger := range triggerList {
		switch t := trigger.(type) {
		case *ignoredTriggerBehaviour[S, T]:
			if !g.config.OmitIgnoredTransitions {
				sb.WriteString(g.formatOneTransition(sr.State, sr.State, t, nil, t.Guard))
			}
		case *reentryTriggerBehaviour[S, T]:
			if !g.config.OmitReentrantTransitions {
				actions := g.getEntryActions(sr.EntryActions, t.Trigger)
				sb.WriteString(g.formatOneTransition(sr.State, t.Destination, t, actions, t.Guard))
			}
		case *internalTriggerBehaviour[S, T]:
			if !g.config.OmitInternalTransitions {
				actions := g.getEntryActions(sr.EntryActions, t.Trigger)
				sb.WriteString(g.formatOneTransition(sr.State, sr.State, t, actions, t.Guard))
			}
		case *transitioningTriggerBehaviour[S, T]:
			dest, ok := g.sm.stateConfig[t.Destination]
			var actions []string
			destState := t.Destination
			if ok {
				actions = g.getEntryActions(dest.EntryActions, t.Trigger)
				destState = dest.State
			}
			sb.WriteString(g.formatOneTransition(sr.State, destState, t, actions, t.Guard))
		case *dynamicTriggerBehaviour[S, T]:
			// Destinations are computed at fire time; graph export cannot
			// enumerate them statically.
		}
	}
	return sb.String()
}

func (g *graph[S, T]) formatOneTransition(source, destination S, tb triggerBehaviour[S, T], actions []string, guard transitionGuard) string {
	var sb strings.Builder
	sb.WriteString(str(tb.GetTrigger(), false))
	if len(actions) > 0 {
		sb.WriteString(" / ")
		sb.WriteString(strings.Join(actions, ", "))
	}
	for _, c := range guard.Conditions {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("[%s]", esc(c.Description.String(), false)))
	}
	clr := g.colorForTrigger(tb)
	return g.formatOneLine(str(source, true), str(destination, true), sb.String(), clr)
}

func (g *graph[S, T]) colorForTrigger(tb triggerBehaviour[S, T]) color.Color {
	switch tb.(type) {
	case *ignoredTriggerBehaviour[S, T]:
		return g.config.IgnoredTransitionColor
	case *reentryTriggerBehaviour[S, T]:
		return g.config.ReentrantTransitionColor
	case *internalTriggerBehaviour[S, T]:
		return g.config.InternalTransitionColor
	}
	return nil
}

func (g *graph[S, T]) formatOneLine(fromNodeName, toNodeName, label string, clr color.Color) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\t%s -> %s [label=\"%s\"", fromNodeName, toNodeName, label))
	if clr != nil {
		gc := toGraphvizColor(clr)
		sb.WriteString(fmt.Sprintf(` color="%s" fontcolor="%s"`, gc, gc))
	}
	sb.WriteString("];\n")
	return sb.String()
}

func toGraphvizColor(c color.Color) string {
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", r>>8, g>>8, b>>8, a>>8)
}

func clusterStr(state any, quote, init bool) string {
	s := fmt.Sprint(state)
	if init {
		s += "-init"
	}
	return esc("cluster_"+s, quote)
}

func str(v any, quote bool) string {
	return esc(fmt.Sprint(v), quote)
}

func isHTML(s string) bool {
	if len(s) == 0 {
		return false
	}
	ss := strings.TrimSpace(s)
	if ss[0] != '<' {
		return false
	}
	var count int
	for _, c := range ss {
		if c == '<' {
			count++
		}
		if c == '>' {
			count--
		}
	}
	return count == 0
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' ||
		ch >= 0x80 && unicode.IsLetter(ch) && ch != 'ε'
}

func isID(s string) bool {
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
		if unicode.IsSpace(c) {
			return false
		}
		switch c {
		case '-', '/', '.', '@':
			return false
		}
	}
	return true
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9' || ch >= 0x80 && unicode.IsDigit(ch)
}

func isNumber(s string) bool {
	var state int
	for _, c := range s {
		if state == 0 {
			if isDigit(c) || c == '.' {
				state = 2
			} else if c == '-' {
				state = 1
			} else {
				return false
			}
		} else if state == 1 {
			if isDigit(c) || c == '.' {
				state = 2
			}
		} else if c != '.' && !isDigit(c) {
			return false
		}
	}
	return state == 2
}

func isStringLit(s string) bool {
	if !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return false
	}
	var prev rune
	for _, r := range s[1 : len(s)-1] {
		if r == '"' && prev != '\\' {
			return false
		}
		prev = r
	}
	return true
}

func esc(s string, quote bool) string {
	if len(s) == 0 {
		return s
	}
	if isHTML(s) {
		return s
	}
	ss := strings.TrimSpace(s)
	if ss[0] == '<' {
		s := strings.Replace(s, "\"", "\\\"", -1)
		if quote {
			s = fmt.Sprintf("\"%s\"", s)
		}
		return s
	}
	if isID(s) {
		return s
	}
	if isNumber(s) {
		return s
	}
	if isStringLit(s) {
		return s
	}
	s = template.HTMLEscapeString(s)
	if quote {
		s = fmt.Sprintf("\"%s\"", s)
	}
	return s
}
